// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type executorCase struct {
	name string
	exec Executor
}

func executors(t *testing.T) []executorCase {
	t.Helper()
	pool := NewPoolExecutor(4)
	t.Cleanup(pool.Close)
	return []executorCase{
		{"pool", pool},
		{"conc", NewConcExecutor(4)},
		{"conc-unbounded", NewConcExecutor(0)},
		{"inline", InlineExecutor{}},
	}
}

// chain builds n record/submit pairs with submit_i after record_i and
// submit_{i-1}. Each record sleeps a random duration from rng.
func chain(t *testing.T, n int, rng *rand.Rand, log func(string)) *Graph {
	t.Helper()
	g := New()
	for i := range n {
		delay := time.Duration(rng.IntN(2000)) * time.Microsecond
		rec := fmt.Sprintf("record/%d", i)
		sub := fmt.Sprintf("submit/%d", i)
		if err := g.Add(&Task{Name: rec, Run: func(context.Context) error {
			time.Sleep(delay)
			log(rec)
			return nil
		}}); err != nil {
			t.Fatal(err)
		}
		if err := g.Add(&Task{Name: sub, Run: func(context.Context) error {
			log(sub)
			return nil
		}}); err != nil {
			t.Fatal(err)
		}
		if err := g.Precede(rec, sub); err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			if err := g.Precede(fmt.Sprintf("submit/%d", i-1), sub); err != nil {
				t.Fatal(err)
			}
		}
	}
	return g
}

func TestExecuteSubmitOrderIsDeterministic(t *testing.T) {
	for _, ec := range executors(t) {
		t.Run(ec.name, func(t *testing.T) {
			for seed := uint64(1); seed <= 8; seed++ {
				rng := rand.New(rand.NewPCG(seed, seed*31))
				n := 1 + rng.IntN(12)

				var mu sync.Mutex
				var submits []string
				recorded := make(map[string]bool)
				g := chain(t, n, rng, func(name string) {
					mu.Lock()
					defer mu.Unlock()
					if len(name) > 7 && name[:7] == "submit/" {
						rec := "record/" + name[7:]
						if !recorded[rec] {
							t.Errorf("%s ran before %s", name, rec)
						}
						submits = append(submits, name)
						return
					}
					recorded[name] = true
				})

				if err := ec.exec.Execute(context.Background(), g); err != nil {
					t.Fatalf("seed %d: Execute() = %v", seed, err)
				}

				want := make([]string, n)
				for i := range n {
					want[i] = fmt.Sprintf("submit/%d", i)
				}
				if !slices.Equal(submits, want) {
					t.Errorf("seed %d: submit order = %v, want %v", seed, submits, want)
				}
			}
		})
	}
}

func TestExecuteRunsIndependentTasksConcurrently(t *testing.T) {
	pool := NewPoolExecutor(2)
	defer pool.Close()

	for _, exec := range []Executor{pool, NewConcExecutor(2)} {
		// Two tasks wait for each other; only concurrent execution finishes.
		var a, b sync.WaitGroup
		a.Add(1)
		b.Add(1)
		g := New()
		_ = g.Add(&Task{Name: "a", Run: func(context.Context) error { a.Done(); b.Wait(); return nil }})
		_ = g.Add(&Task{Name: "b", Run: func(context.Context) error { b.Done(); a.Wait(); return nil }})

		done := make(chan error, 1)
		go func() { done <- exec.Execute(context.Background(), g) }()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("%T: Execute() = %v", exec, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%T: independent tasks did not run concurrently", exec)
		}
	}
}

func TestExecuteExternalPredecessor(t *testing.T) {
	for _, ec := range executors(t) {
		t.Run(ec.name, func(t *testing.T) {
			var loaded atomic.Bool
			g := New()
			_ = g.Add(&Task{Name: "load", Run: func(context.Context) error {
				time.Sleep(time.Millisecond)
				loaded.Store(true)
				return nil
			}})
			for _, n := range []string{"record", "submit"} {
				_ = g.Add(&Task{Name: n, Run: func(context.Context) error {
					if !loaded.Load() {
						t.Errorf("%s ran before load finished", n)
					}
					return nil
				}})
				if err := g.Precede("load", n); err != nil {
					t.Fatal(err)
				}
			}
			if err := ec.exec.Execute(context.Background(), g); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestExecuteErrorStopsSuccessors(t *testing.T) {
	errBoom := errors.New("boom")
	for _, ec := range executors(t) {
		t.Run(ec.name, func(t *testing.T) {
			var ranAfter atomic.Bool
			g := New()
			_ = g.Add(&Task{Name: "fail", Run: func(context.Context) error { return errBoom }})
			_ = g.Add(&Task{Name: "after", Run: func(context.Context) error {
				ranAfter.Store(true)
				return nil
			}})
			_ = g.Precede("fail", "after")

			err := ec.exec.Execute(context.Background(), g)
			if !errors.Is(err, errBoom) {
				t.Errorf("Execute() = %v, want %v", err, errBoom)
			}
			if ranAfter.Load() {
				t.Error("successor of a failed task ran")
			}
		})
	}
}

func TestExecutePanicReraisedOnCaller(t *testing.T) {
	errContract := errors.New("contract")
	for _, ec := range executors(t) {
		t.Run(ec.name, func(t *testing.T) {
			g := New()
			_ = g.Add(&Task{Name: "bad", Run: func(context.Context) error { panic(errContract) }})
			_ = g.Add(&Task{Name: "other", Run: nop})

			defer func() {
				r := recover()
				tp, ok := r.(*TaskPanic)
				if !ok {
					t.Fatalf("recovered %T (%v), want *TaskPanic", r, r)
				}
				if tp.Task != "bad" {
					t.Errorf("TaskPanic.Task = %q, want bad", tp.Task)
				}
				if !errors.Is(tp, errContract) {
					t.Error("errors.Is(TaskPanic, errContract) = false")
				}
				if len(tp.Stack) == 0 {
					t.Error("TaskPanic.Stack is empty")
				}
			}()
			_ = ec.exec.Execute(context.Background(), g)
			t.Fatal("Execute() returned normally after a task panic")
		})
	}
}

func TestExecuteEmptyGraph(t *testing.T) {
	for _, ec := range executors(t) {
		if err := ec.exec.Execute(context.Background(), New()); err != nil {
			t.Errorf("%s: Execute(empty) = %v", ec.name, err)
		}
		if err := ec.exec.Execute(context.Background(), nil); err != nil {
			t.Errorf("%s: Execute(nil) = %v", ec.name, err)
		}
	}
}

func TestPoolExecutorAfterClose(t *testing.T) {
	exec := NewPoolExecutor(1)
	exec.Close()

	var ran atomic.Int32
	g := New()
	_ = g.Add(&Task{Name: "a", Run: func(context.Context) error { ran.Add(1); return nil }})
	if err := exec.Execute(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 1 {
		t.Errorf("task ran %d times on closed executor, want 1", ran.Load())
	}
}
