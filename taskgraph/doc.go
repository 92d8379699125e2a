// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package taskgraph provides an explicit directed acyclic graph of tasks
// and executors that run such a graph to completion.
//
// A Graph holds named tasks and predecessor edges. It is built on one
// goroutine and then handed to an Executor, which starts every task as
// soon as all of its predecessors have finished:
//
//	g := taskgraph.New()
//	_ = g.Add(&taskgraph.Task{Name: "record", Run: record})
//	_ = g.Add(&taskgraph.Task{Name: "submit", Run: submit})
//	_ = g.Precede("record", "submit")
//
//	exec := taskgraph.NewPoolExecutor(0)
//	defer exec.Close()
//	err := exec.Execute(ctx, g)
//
// Three executors are provided. PoolExecutor reuses a fixed set of worker
// goroutines for the life of the executor. ConcExecutor starts a bounded
// goroutine per ready task. InlineExecutor runs everything on the caller.
//
// Executors never cancel running tasks. A task error stops the release of
// further tasks; a task panic is re-raised on the caller as *TaskPanic.
package taskgraph
