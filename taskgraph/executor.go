// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package taskgraph

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/gogpu/framegraph/internal/parallel"
)

// Executor runs a task graph to completion, blocking until every task has
// finished. A task starts only after all of its predecessors finished.
//
// If a task returns an error, its successors are not started; tasks
// already running are waited for and the first error is returned. If a
// task panics, the panic is re-raised on the caller's goroutine as a
// *TaskPanic once in-flight tasks have drained.
type Executor interface {
	Execute(ctx context.Context, g *Graph) error
}

// TaskPanic carries a panic recovered from a task.
type TaskPanic struct {
	Task  string
	Value any
	Stack []byte
}

func (p *TaskPanic) Error() string {
	return fmt.Sprintf("taskgraph: task %q panicked: %v", p.Task, p.Value)
}

// Unwrap returns the panic value when it is an error.
func (p *TaskPanic) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

type result struct {
	index     int
	err       error
	recovered *panics.Recovered
}

// execute is the dependency-counting loop shared by all executors. launch
// must arrange for fn to run exactly once, on any goroutine.
func execute(ctx context.Context, g *Graph, launch func(fn func())) error {
	if g == nil || g.Len() == 0 {
		return nil
	}
	p, err := g.plan()
	if err != nil {
		return err
	}

	// Buffered for every task so workers never block on reporting.
	results := make(chan result, len(p.tasks))
	inflight := 0
	start := func(i int) {
		inflight++
		t := p.tasks[i]
		launch(func() {
			var runErr error
			var pc panics.Catcher
			pc.Try(func() { runErr = t.Run(ctx) })
			results <- result{index: i, err: runErr, recovered: pc.Recovered()}
		})
	}

	for i, deg := range p.indegree {
		if deg == 0 {
			start(i)
		}
	}

	var (
		firstErr error
		panicked *TaskPanic
	)
	for inflight > 0 {
		r := <-results
		inflight--

		name := p.tasks[r.index].Name
		if r.recovered != nil && panicked == nil {
			panicked = &TaskPanic{Task: name, Value: r.recovered.Value, Stack: r.recovered.Stack}
		}
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("taskgraph: task %q: %w", name, r.err)
		}
		if panicked != nil || firstErr != nil {
			continue
		}
		for _, s := range p.successors[r.index] {
			p.indegree[s]--
			if p.indegree[s] == 0 {
				start(s)
			}
		}
	}

	if panicked != nil {
		panic(panicked)
	}
	return firstErr
}

// PoolExecutor runs tasks on a fixed-size worker pool that lives as long
// as the executor.
type PoolExecutor struct {
	pool *parallel.WorkerPool
}

// NewPoolExecutor starts an executor with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPoolExecutor(workers int) *PoolExecutor {
	return &PoolExecutor{pool: parallel.NewWorkerPool(workers)}
}

// Execute implements Executor.
func (e *PoolExecutor) Execute(ctx context.Context, g *Graph) error {
	return execute(ctx, g, func(fn func()) {
		if !e.pool.Submit(fn) {
			// Closed pool: keep the frame moving on the caller.
			fn()
		}
	})
}

// Workers returns the size of the worker pool.
func (e *PoolExecutor) Workers() int { return e.pool.Workers() }

// Close stops the worker pool.
func (e *PoolExecutor) Close() { e.pool.Close() }

// ConcExecutor starts a goroutine per ready task, bounded by a
// maximum concurrency.
type ConcExecutor struct {
	maxGoroutines int
}

// NewConcExecutor returns an executor running at most maxGoroutines tasks
// at once. Zero or negative means unbounded.
func NewConcExecutor(maxGoroutines int) *ConcExecutor {
	return &ConcExecutor{maxGoroutines: maxGoroutines}
}

// Execute implements Executor.
func (e *ConcExecutor) Execute(ctx context.Context, g *Graph) error {
	p := pool.New()
	if e.maxGoroutines > 0 {
		p = p.WithMaxGoroutines(e.maxGoroutines)
	}
	defer p.Wait()
	return execute(ctx, g, p.Go)
}

// InlineExecutor runs every task on the calling goroutine in dependency
// order. Useful for tests and single-threaded tools.
type InlineExecutor struct{}

// Execute implements Executor.
func (InlineExecutor) Execute(ctx context.Context, g *Graph) error {
	return execute(ctx, g, func(fn func()) { fn() })
}
