package engine

import (
	"context"

	"github.com/piwi3910/lotcut/internal/model"
)

// GeneticInput is owned by exactly one task. Arena must be a private clone.
type GeneticInput struct {
	Color       string
	Demand      map[string]int
	Arena       *model.LotArena
	Consumption model.Consumption
	Config      model.GeneticConfig
}

// GeneticResult is delivered once per task.
type GeneticResult struct {
	Color   string
	Jobs    []model.CutJob
	Fitness float64
	Err     error
}

// GeneticTask is a background genetic run for one color.
type GeneticTask struct {
	done   chan GeneticResult
	cancel context.CancelFunc
}

// StartGenetic runs the genetic search in its own goroutine. The result
// arrives on Done exactly once; a cancelled run delivers only the error.
func StartGenetic(ctx context.Context, in GeneticInput) *GeneticTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &GeneticTask{
		done:   make(chan GeneticResult, 1),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		best, err := newGeneticOptimizer(in).optimize(ctx)
		if err != nil {
			t.done <- GeneticResult{Color: in.Color, Err: err}
			return
		}
		t.done <- GeneticResult{Color: in.Color, Jobs: best.jobs, Fitness: best.fitness}
	}()
	return t
}

// Done returns the one-shot result channel.
func (t *GeneticTask) Done() <-chan GeneticResult {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. On ctx expiry the task
// is cancelled and its eventual result is discarded.
func (t *GeneticTask) Wait(ctx context.Context) (GeneticResult, error) {
	select {
	case res := <-t.done:
		return res, res.Err
	case <-ctx.Done():
		t.cancel()
		return GeneticResult{}, ctx.Err()
	}
}

// Cancel stops the task at its next generation boundary.
func (t *GeneticTask) Cancel() {
	t.cancel()
}
