package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of processing one file in a batch. Exactly one of
// Result and Err is set.
type Outcome struct {
	Path   string
	Result *Result
	Err    error
}

// RunBatch processes paths with at most parallel concurrent runs and returns
// one Outcome per path in input order. A failed file never stops the others.
func RunBatch(ctx context.Context, o *Orchestrator, paths []string, parallel int) []Outcome {
	if parallel < 1 {
		parallel = 1
	}

	outcomes := make([]Outcome, len(paths))
	var g errgroup.Group
	g.SetLimit(parallel)

	for i, path := range paths {
		g.Go(func() error {
			res, err := o.Process(ctx, path)
			outcomes[i] = Outcome{Path: path, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}
	log.Info().
		Int("files", len(paths)).
		Int("failed", failed).
		Int("parallel", parallel).
		Msg("Batch completed")

	return outcomes
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
