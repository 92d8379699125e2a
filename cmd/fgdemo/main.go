// Command fgdemo drives a deferred-shading frame graph for a number of
// frames and logs per-frame statistics.
//
// By default it runs on the noop HAL backend and needs no GPU:
//
//	fgdemo -frames 120 -workers 4 -verbose
//	fgdemo -backend vulkan -executor conc
//	fgdemo -backend auto
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/taskgraph"
)

func main() {
	var (
		frames   = flag.Int("frames", 60, "number of frames to run")
		workers  = flag.Int("workers", 0, "executor workers (0 = GOMAXPROCS)")
		executor = flag.String("executor", "pool", "executor: pool or conc")
		width    = flag.Uint("width", 1280, "render width")
		height   = flag.Uint("height", 720, "render height")
		devName  = flag.String("backend", backend.BackendNoop, "device backend: noop, vulkan or auto")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	zl, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := demoConfig{
		frames:   *frames,
		workers:  *workers,
		executor: *executor,
		width:    *width,
		height:   *height,
		backend:  *devName,
	}
	if err := run(ctx, zl, cfg); err != nil {
		zl.Error("fgdemo failed", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

type demoConfig struct {
	frames        int
	workers       int
	executor      string
	width, height uint
	backend       string
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if !verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zc.Build()
}

// newSlogLogger routes library slog output into zl.
func newSlogLogger(zl *zap.Logger) *slog.Logger {
	return slog.New(zapslog.NewHandler(zl.Core(), zapslog.WithName("framegraph")))
}

func run(ctx context.Context, zl *zap.Logger, cfg demoConfig) error {
	if cfg.width == 0 || cfg.height == 0 {
		return errors.New("width and height must be positive")
	}
	if cfg.width > math.MaxUint32 || cfg.height > math.MaxUint32 {
		return fmt.Errorf("size %dx%d exceeds %d", cfg.width, cfg.height, uint32(math.MaxUint32))
	}

	sl := newSlogLogger(zl)
	framegraph.SetLogger(sl)

	dev, err := openDevice(cfg.backend, sl)
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := []framegraph.Option{framegraph.WithWorkers(cfg.workers)}
	switch cfg.executor {
	case "pool":
	case "conc":
		opts = append(opts, framegraph.WithExecutor(taskgraph.NewConcExecutor(cfg.workers)))
	default:
		return fmt.Errorf("unknown executor %q", cfg.executor)
	}

	fg := framegraph.New(dev, opts...)
	defer fg.Close()

	var res frameResources
	stages := demoStages(&res)
	start := time.Now()

	for i := 0; i < cfg.frames; i++ {
		if err := ctx.Err(); err != nil {
			zl.Info("interrupted", zap.Int("frames", i))
			return nil
		}
		if err := renderFrame(ctx, fg, &res, stages, cfg); err != nil {
			return fmt.Errorf("frame %d: %w", fg.Frame(), err)
		}

		st := fg.Stats()
		zl.Info("frame",
			zap.Uint64("frame", st.Frame),
			zap.Int("passes", st.Passes),
			zap.Int("declined", st.Declined),
			zap.Int("resources", st.Resources),
			zap.Uint64("heapsCreated", st.HeapsCreated),
			zap.Uint64("heapsReused", st.HeapsReused),
			zap.Int("heapsRecycled", st.HeapsRecycled),
			zap.Uint64("bytesBound", st.BytesBound),
			zap.Uint64("digest", st.Digest))
		if zl.Core().Enabled(zap.DebugLevel) {
			for _, lt := range st.Lifetimes {
				zl.Debug("resource",
					zap.String("name", lt.Name),
					zap.Stringer("kind", lt.Kind),
					zap.Uint8("first", uint8(lt.First)),
					zap.Uint8("last", uint8(lt.Last)))
			}
		}
	}

	elapsed := time.Since(start)
	zl.Info("done",
		zap.Int("frames", cfg.frames),
		zap.String("adapter", dev.Name()),
		zap.Duration("elapsed", elapsed),
		zap.Duration("perFrame", elapsed/time.Duration(max(cfg.frames, 1))))
	return nil
}

func renderFrame(ctx context.Context, fg *framegraph.FrameGraph, res *frameResources, stages []framegraph.Stage, cfg demoConfig) error {
	fg.InitializeForFrame()
	res.reset(uint32(cfg.width), uint32(cfg.height))

	for _, s := range stages {
		if _, err := fg.AddPass(s); err != nil {
			return err
		}
	}
	if err := fg.Compile(); err != nil {
		return err
	}
	return fg.Execute(ctx)
}
