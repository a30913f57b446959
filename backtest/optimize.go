package backtest

import (
	"context"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/stats"
	"github.com/souloss/TradingLab/strategies"
)

// DefaultObjective is the statistic Optimize maximizes unless told
// otherwise.
const DefaultObjective = "equity_final"

// OptimizeOptions tunes Optimize.
type OptimizeOptions struct {
	// Objective is a stats metric name; defaults to DefaultObjective.
	Objective string
	// Ranges overrides strategies.OptimizationSpace for the type.
	Ranges []strategies.Range
	BatchOptions
}

// Trial is one evaluated grid point.
type Trial struct {
	Config strategies.Config `json:"config"`
	Value  stats.Float       `json:"value"`
	Err    string            `json:"error,omitempty"`
}

// Optimization is the outcome of a grid search.
type Optimization struct {
	Objective string            `json:"objective"`
	Best      strategies.Config `json:"best"`
	BestValue float64           `json:"best_value"`
	Trials    []Trial           `json:"trials"`
	// Result is the full run of the best config.
	Result *Result `json:"result"`
}

// Optimize backtests every grid point of t that satisfies the type's
// constraint and returns the one maximizing the objective. Grid points
// whose objective is undefined are skipped; ties keep the earlier point.
func (e *Engine) Optimize(ctx context.Context, bs *market.BarSet, t strategies.Type, opts OptimizeOptions) (*Optimization, error) {
	objective := opts.Objective
	if objective == "" {
		objective = DefaultObjective
	}
	if !stats.IsMetric(objective) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown objective %q", objective)
	}
	if bs == nil {
		return nil, errors.New(errors.ErrCodeDataIntegrity, "no bars")
	}
	if err := bs.Validate(); err != nil {
		return nil, err
	}

	grid, err := strategies.Grid(t, opts.Ranges)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "optimization grid for %s is empty", t)
	}

	jobs := make([]Job, len(grid))
	for i, cfg := range grid {
		jobs[i] = Job{Bars: bs, Strategies: []strategies.Config{cfg}}
	}

	e.log.Info("optimization started",
		zap.String("symbol", bs.Symbol),
		zap.String("type", string(t)),
		zap.Int("grid", len(grid)),
		zap.String("objective", objective),
	)

	results, err := e.RunBatch(ctx, jobs, opts.BatchOptions)
	if err != nil {
		return nil, err
	}

	out := &Optimization{Objective: objective, Trials: make([]Trial, len(grid))}
	found := false
	for i, jr := range results {
		trial := Trial{Config: grid[i]}
		if jr.Err != nil {
			trial.Err = jr.Err.Error()
			out.Trials[i] = trial
			continue
		}
		v, ok := jr.Result.Stats.Metric(objective)
		if ok {
			trial.Value = optional.Some(v)
		}
		out.Trials[i] = trial
		if ok && (!found || v > out.BestValue) {
			found = true
			out.Best, out.BestValue, out.Result = grid[i], v, jr.Result
		}
	}
	if !found {
		return out, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"objective %s is undefined for every grid point", objective)
	}
	return out, nil
}
