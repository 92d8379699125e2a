// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"
)

// Graph construction errors.
var (
	// ErrDuplicateTask is returned when a task name is already in the graph.
	ErrDuplicateTask = errors.New("taskgraph: duplicate task")

	// ErrUnknownTask is returned when an edge names a task not in the graph.
	ErrUnknownTask = errors.New("taskgraph: unknown task")

	// ErrCycle is returned when an edge would make the graph cyclic.
	ErrCycle = errors.New("taskgraph: edge creates a cycle")

	// ErrNilTask is returned when adding a task without a Run function.
	ErrNilTask = errors.New("taskgraph: task has no Run function")
)

// Task is a unit of work in a Graph. Name must be unique within the graph.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Graph is a directed acyclic graph of tasks. An edge from A to B means
// B may not start before A has finished.
//
// Graph is not safe for concurrent mutation; build it on one goroutine,
// then hand it to an Executor.
type Graph struct {
	dag   graph.Graph[string, *Task]
	names []string
	index map[string]int
	edges int
}

func taskName(t *Task) string { return t.Name }

// New returns an empty task graph.
func New() *Graph {
	return &Graph{
		dag:   graph.New(taskName, graph.Directed(), graph.PreventCycles()),
		index: make(map[string]int),
	}
}

// Add inserts t into the graph.
func (g *Graph) Add(t *Task) error {
	if t == nil || t.Run == nil {
		return ErrNilTask
	}
	if _, ok := g.index[t.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, t.Name)
	}
	if err := g.dag.AddVertex(t); err != nil {
		return fmt.Errorf("taskgraph: add %q: %w", t.Name, err)
	}
	g.index[t.Name] = len(g.names)
	g.names = append(g.names, t.Name)
	return nil
}

// Has reports whether a task with the given name exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Task returns the task with the given name.
func (g *Graph) Task(name string) (*Task, bool) {
	if !g.Has(name) {
		return nil, false
	}
	t, err := g.dag.Vertex(name)
	if err != nil {
		return nil, false
	}
	return t, true
}

// Precede adds an edge so that after waits for before. Adding an edge
// that already exists is a no-op.
func (g *Graph) Precede(before, after string) error {
	for _, n := range [...]string{before, after} {
		if !g.Has(n) {
			return fmt.Errorf("%w: %q", ErrUnknownTask, n)
		}
	}
	err := g.dag.AddEdge(before, after)
	switch {
	case err == nil:
		g.edges++
		return nil
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return fmt.Errorf("%w: %q -> %q", ErrCycle, before, after)
	default:
		return fmt.Errorf("taskgraph: edge %q -> %q: %w", before, after, err)
	}
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.names) }

// Edges returns the number of edges.
func (g *Graph) Edges() int { return g.edges }

// Names returns task names in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Predecessors returns the names of the tasks name waits for, in
// insertion order.
func (g *Graph) Predecessors(name string) ([]string, error) {
	if !g.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	preds, err := g.dag.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("taskgraph: predecessors: %w", err)
	}
	return g.sortByInsertion(preds[name]), nil
}

// Order returns the task names in a topological order.
func (g *Graph) Order() ([]string, error) {
	order, err := graph.TopologicalSort(g.dag)
	if err != nil {
		return nil, fmt.Errorf("taskgraph: topological sort: %w", err)
	}
	return order, nil
}

// plan is the index-based form of a graph consumed by executors.
type plan struct {
	tasks      []*Task
	indegree   []int
	successors [][]int
}

func (g *Graph) plan() (*plan, error) {
	adj, err := g.dag.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("taskgraph: adjacency: %w", err)
	}

	p := &plan{
		tasks:      make([]*Task, len(g.names)),
		indegree:   make([]int, len(g.names)),
		successors: make([][]int, len(g.names)),
	}
	for i, name := range g.names {
		t, err := g.dag.Vertex(name)
		if err != nil {
			return nil, fmt.Errorf("taskgraph: vertex %q: %w", name, err)
		}
		p.tasks[i] = t
		for _, succ := range g.sortByInsertion(adj[name]) {
			j := g.index[succ]
			p.successors[i] = append(p.successors[i], j)
			p.indegree[j]++
		}
	}
	return p, nil
}

func (g *Graph) sortByInsertion(set map[string]graph.Edge[string]) []string {
	if len(set) == 0 {
		return nil
	}
	idx := make([]int, 0, len(set))
	for name := range set {
		idx = append(idx, g.index[name])
	}
	slices.Sort(idx)
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = g.names[k]
	}
	return out
}
