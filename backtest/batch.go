package backtest

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/strategies"
)

// DefaultConcurrency bounds the number of runs a batch executes at once.
const DefaultConcurrency = 50

// Job is one run of a batch.
type Job struct {
	// ID becomes the run ID; generated when empty.
	ID         string
	Bars       *market.BarSet
	Strategies []strategies.Config
}

// JobResult pairs a job with its outcome. Exactly one of Result and Err is
// set.
type JobResult struct {
	Index  int
	Symbol string
	Result *Result
	Err    error
}

// BatchOptions tunes RunBatch.
type BatchOptions struct {
	// Concurrency defaults to DefaultConcurrency.
	Concurrency int
	// Progress, when set, is called after each job finishes. It may be
	// called from several goroutines at once.
	Progress func(JobResult)
}

// RunBatch runs every job with bounded concurrency. A failing job never
// cancels its siblings; its error is reported in its JobResult. Results are
// in job order. The returned error is only ever ctx.Err().
func (e *Engine) RunBatch(ctx context.Context, jobs []Job, opts BatchOptions) ([]JobResult, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		jr := JobResult{Index: i}
		if job.Bars != nil {
			jr.Symbol = job.Bars.Symbol
		}
		if err := gctx.Err(); err != nil {
			jr.Err = err
			results[i] = jr
			continue
		}
		g.Go(func() error {
			jr.Result, jr.Err = e.run(gctx, job.ID, job.Bars, job.Strategies)
			if jr.Err != nil {
				e.log.Warn("batch job failed",
					zap.Int("index", i),
					zap.String("symbol", jr.Symbol),
					zap.Error(jr.Err),
				)
			}
			results[i] = jr
			if opts.Progress != nil {
				opts.Progress(jr)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Selections summarizes the successful runs of a batch, in job order.
func Selections(results []JobResult) []Selection {
	out := make([]Selection, 0, len(results))
	for _, jr := range results {
		if jr.Err != nil || jr.Result == nil {
			continue
		}
		out = append(out, jr.Result.Selection())
	}
	return out
}
