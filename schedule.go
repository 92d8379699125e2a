package framegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/framegraph/taskgraph"
)

// buildTasks emits a record and a submit task per pass. Record tasks are
// independent of each other; submit tasks are chained in pass order.
func (g *FrameGraph) buildTasks() (*taskgraph.Graph, error) {
	tg := taskgraph.New()
	prevSubmit := ""
	for _, p := range g.passes {
		rec := &taskgraph.Task{
			Name: fmt.Sprintf("record/%d/%s", p.id, p.name),
			Run:  g.recordTask(p),
		}
		sub := &taskgraph.Task{
			Name: fmt.Sprintf("submit/%d/%s", p.id, p.name),
			Run:  g.submitTask(p),
		}
		if err := addTasks(tg, rec, sub); err != nil {
			return nil, err
		}
		if err := tg.Precede(rec.Name, sub.Name); err != nil {
			return nil, fmt.Errorf("framegraph: schedule pass %q: %w", p.name, err)
		}
		if prevSubmit != "" {
			if err := tg.Precede(prevSubmit, sub.Name); err != nil {
				return nil, fmt.Errorf("framegraph: schedule pass %q: %w", p.name, err)
			}
		}
		prevSubmit = sub.Name

		for _, t := range p.after {
			if existing, ok := tg.Task(t.Name); ok {
				if existing != t {
					return nil, fmt.Errorf("framegraph: pass %q predecessor %q: %w",
						p.name, t.Name, taskgraph.ErrDuplicateTask)
				}
			} else if err := addTasks(tg, t); err != nil {
				return nil, err
			}
			for _, succ := range [...]string{rec.Name, sub.Name} {
				if err := tg.Precede(t.Name, succ); err != nil {
					return nil, fmt.Errorf("framegraph: pass %q predecessor %q: %w", p.name, t.Name, err)
				}
			}
		}
	}
	return tg, nil
}

func addTasks(tg *taskgraph.Graph, tasks ...*taskgraph.Task) error {
	for _, t := range tasks {
		if err := tg.Add(t); err != nil {
			return fmt.Errorf("framegraph: schedule: %w", err)
		}
	}
	return nil
}

// recordTask runs the stage's Render callback between Begin and End of
// the pass's command list.
func (g *FrameGraph) recordTask(p *pass) func(context.Context) error {
	return func(context.Context) error {
		if err := p.commands.Begin(); err != nil {
			return fmt.Errorf("framegraph: begin pass %q: %w", p.name, err)
		}
		g.render(p)
		if err := p.commands.End(); err != nil {
			return fmt.Errorf("framegraph: end pass %q: %w", p.name, err)
		}
		return nil
	}
}

func (g *FrameGraph) render(p *pass) {
	p.ctx.active.Store(true)
	defer p.ctx.active.Store(false)
	p.stage.Render(p.ctx)
}

func (g *FrameGraph) submitTask(p *pass) func(context.Context) error {
	return func(context.Context) error {
		if err := g.device.Submit(p.commands); err != nil {
			return fmt.Errorf("framegraph: submit pass %q: %w", p.name, err)
		}
		return nil
	}
}

// Execute runs the compiled frame: every pass records in parallel and
// submits in declaration order. It blocks until all tasks have finished.
//
// A device error is returned. A panic in a Render callback is re-raised
// on the calling goroutine as a *taskgraph.TaskPanic, which unwraps to
// the original value when it is an error.
func (g *FrameGraph) Execute(ctx context.Context) error {
	defer g.enterSetup("Execute")()
	if g.phase != PhaseExecute {
		violate("Execute", ErrWrongPhase, "phase is %s", g.phase)
	}
	if g.executed {
		violate("Execute", ErrWrongPhase, "frame %d already executed", g.frame)
	}
	g.executed = true

	start := time.Now()
	if err := g.executor.Execute(ctx, g.tasks); err != nil {
		return err
	}
	g.log().Debug("framegraph: executed", "frame", g.frame, "passes", len(g.passes), "elapsed", time.Since(start))
	return nil
}
