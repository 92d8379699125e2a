package main

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

func newObservedLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(func() { framegraph.SetLogger(nil) })
	return zap.New(core), logs
}

func testConfig() demoConfig {
	return demoConfig{
		frames:   3,
		workers:  2,
		executor: "pool",
		width:    64,
		height:   32,
		backend:  backend.BackendNoop,
	}
}

type configCase struct {
	name    string
	mutate  func(c *demoConfig)
	wantErr string
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tests := []configCase{
		{"zero width", func(c *demoConfig) { c.width = 0 }, "must be positive"},
		{"zero height", func(c *demoConfig) { c.height = 0 }, "must be positive"},
		{"unknown executor", func(c *demoConfig) { c.executor = "fibers" }, "unknown executor"},
		{"unknown backend", func(c *demoConfig) { c.backend = "d3d9" }, "not available"},
	}
	// Sizes past uint32 only exist where uint is 64 bits.
	if ^uint(0) > math.MaxUint32 {
		past := uint64(math.MaxUint32) + 1
		tests = append(tests,
			configCase{"width past uint32", func(c *demoConfig) { c.width = uint(past) }, "exceeds"},
			configCase{"height past uint32", func(c *demoConfig) { c.height = ^uint(0) }, "exceeds"},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zl, logs := newObservedLogger(t)
			cfg := testConfig()
			tt.mutate(&cfg)

			err := run(context.Background(), zl, cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("run() error = %v, want containing %q", err, tt.wantErr)
			}
			if n := logs.FilterMessage("frame").Len(); n != 0 {
				t.Errorf("rendered %d frames before rejecting config", n)
			}
		})
	}
}

func TestRunOnNoop(t *testing.T) {
	for _, executor := range []string{"pool", "conc"} {
		t.Run(executor, func(t *testing.T) {
			zl, logs := newObservedLogger(t)
			cfg := testConfig()
			cfg.executor = executor

			if err := run(context.Background(), zl, cfg); err != nil {
				t.Fatalf("run() error = %v", err)
			}

			if n := logs.FilterMessage("frame").Len(); n != cfg.frames {
				t.Errorf("frame entries = %d, want %d", n, cfg.frames)
			}
			if logs.FilterMessage("done").Len() != 1 {
				t.Error("missing done entry")
			}
			if logs.FilterMessage("resource").Len() == 0 {
				t.Error("no per-resource debug entries")
			}
		})
	}
}

// Library slog output lands in zap under the framegraph logger name.
func TestSlogBridge(t *testing.T) {
	zl, logs := newObservedLogger(t)
	if err := run(context.Background(), zl, testConfig()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for _, msg := range []string{"framegraph: created", "wgpu: device opened", "framegraph: closed"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Errorf("%q entries = %d, want 1", msg, len(entries))
			continue
		}
		if got := entries[0].LoggerName; got != "framegraph" {
			t.Errorf("%q logger name = %q, want framegraph", msg, got)
		}
	}

	opened := logs.FilterMessage("wgpu: device opened").All()
	if len(opened) == 1 {
		if _, ok := opened[0].ContextMap()["adapter"]; !ok {
			t.Errorf("device opened fields = %v, want adapter", opened[0].ContextMap())
		}
	}
}

func TestNewSlogLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sl := newSlogLogger(zap.New(core))

	sl.Debug("hidden")
	sl.Info("shown", "frame", 7)
	sl.Warn("warned")

	if logs.Len() != 2 {
		t.Fatalf("entries = %d, want 2", logs.Len())
	}
	e := logs.All()[0]
	if e.Message != "shown" || e.Level != zapcore.InfoLevel {
		t.Errorf("entry = %q at %v", e.Message, e.Level)
	}
	if got := e.ContextMap()["frame"]; got != int64(7) {
		t.Errorf("frame field = %v (%T), want 7", got, got)
	}
	if logs.All()[1].Level != zapcore.WarnLevel {
		t.Errorf("warn level = %v", logs.All()[1].Level)
	}
}
