package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0x5844/minicore/physics"
)

// Job is one independent simulation of a batch.
type Job struct {
	Name string
	Seed int64
	// Setup populates the fresh world.
	Setup func(w *physics.World, rng *rand.Rand) error
}

type Result struct {
	Name    string
	Seed    int64
	Stats   physics.Stats
	Elapsed time.Duration
}

// Batch runs jobs in parallel. Every job gets its own world, which is
// stepped by a single goroutine.
type Batch struct {
	Settings   physics.Settings
	Dimensions physics.Dimensions
	Step       time.Duration
	Steps      int
	// Workers bounds the number of concurrent jobs; zero means unbounded.
	Workers int
}

// Run executes the jobs and returns their results in job order. The first
// failing job cancels the others.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if b.Workers > 0 {
		g.SetLimit(b.Workers)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := b.runJob(ctx, job)
			if err != nil {
				return fmt.Errorf("job %s (seed %d): %w", job.Name, job.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Batch) runJob(ctx context.Context, job Job) (Result, error) {
	w := physics.NewWorld(b.Settings)
	if err := w.SetDimensions(b.Dimensions); err != nil {
		return Result{}, err
	}
	if job.Setup != nil {
		if err := job.Setup(w, rand.New(rand.NewSource(job.Seed))); err != nil {
			return Result{}, err
		}
	}
	e := NewEngine(w, b.Step, 1)
	start := time.Now()
	if err := e.RunSteps(ctx, b.Steps); err != nil {
		return Result{}, err
	}
	return Result{
		Name:    job.Name,
		Seed:    job.Seed,
		Stats:   w.Stats(),
		Elapsed: time.Since(start),
	}, nil
}
