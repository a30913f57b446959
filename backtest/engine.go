// Package backtest runs strategies over a bar series against a simulated
// ledger and reports the resulting statistics.
package backtest

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/souloss/TradingLab/logger"
	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/pkg/id"
	"github.com/souloss/TradingLab/sim"
	"github.com/souloss/TradingLab/stats"
	"github.com/souloss/TradingLab/strategies"
)

// Options configures an Engine. The zero value of each field means its
// default.
type Options struct {
	InitialCash  float64
	LotSize      int64
	Commission   sim.CommissionModel
	Combiner     strategies.Combiner
	Finalize     sim.FinalizePolicy
	RiskFreeRate float64

	// NewIDs returns the generator for one run's identifiers. Defaults to
	// a crypto-seeded id.NewGenerator per run.
	NewIDs func() *id.Generator

	Logger *logger.Logger
}

// DefaultOptions mirrors sim.DefaultOptions with majority voting and
// mark-to-market finalization.
func DefaultOptions() Options {
	ledger := sim.DefaultOptions()
	return Options{
		InitialCash: ledger.InitialCash,
		LotSize:     ledger.LotSize,
		Commission:  ledger.Commission,
		Combiner:    strategies.MajorityVote{},
		Finalize:    sim.MarkToMarket,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.InitialCash == 0 {
		o.InitialCash = d.InitialCash
	}
	if o.LotSize == 0 {
		o.LotSize = d.LotSize
	}
	if o.Commission == nil {
		o.Commission = d.Commission
	}
	if o.Combiner == nil {
		o.Combiner = d.Combiner
	}
	if o.Finalize == "" {
		o.Finalize = d.Finalize
	}
	if o.NewIDs == nil {
		o.NewIDs = id.NewGenerator
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	return o
}

// Engine runs backtests. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	opts Options
	log  *logger.Logger
}

// NewEngine fills defaults and checks the account options.
func NewEngine(opts Options) (*Engine, error) {
	opts = opts.withDefaults()
	if opts.InitialCash < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial cash must be positive, got %v", opts.InitialCash)
	}
	if opts.LotSize < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "lot size must be positive, got %d", opts.LotSize)
	}
	if _, err := sim.ParseFinalizePolicy(string(opts.Finalize)); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, log: opts.Logger}, nil
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run backtests cfgs over bs. Configuration and data errors are returned
// before any bar is processed. ctx is checked between bars; a cancelled run
// returns ctx.Err() and no result.
func (e *Engine) Run(ctx context.Context, bs *market.BarSet, cfgs []strategies.Config) (*Result, error) {
	return e.run(ctx, "", bs, cfgs)
}

func (e *Engine) run(ctx context.Context, runID string, bs *market.BarSet, cfgs []strategies.Config) (*Result, error) {
	if bs == nil {
		return nil, errors.New(errors.ErrCodeDataIntegrity, "no bars")
	}

	configs := make([]strategies.Config, len(cfgs))
	for i, c := range cfgs {
		configs[i] = c.WithDefaults()
	}
	if err := strategies.ValidateAll(configs); err != nil {
		return nil, err
	}
	if err := bs.Validate(); err != nil {
		return nil, err
	}

	evals := make([]strategies.Evaluator, len(configs))
	for i, c := range configs {
		ev, err := strategies.NewEvaluator(c)
		if err != nil {
			return nil, err
		}
		evals[i] = ev
	}

	ids := e.opts.NewIDs()
	if runID == "" {
		runID = ids.New()
	}
	ledger, err := sim.NewLedger(sim.Options{
		InitialCash: e.opts.InitialCash,
		LotSize:     e.opts.LotSize,
		Commission:  e.opts.Commission,
		IDs:         ids,
	})
	if err != nil {
		return nil, err
	}

	log := e.log.With(zap.String("run_id", runID), zap.String("symbol", bs.Symbol))
	log.Debug("backtest started",
		zap.Int("bars", bs.Len()),
		zap.Stringers("strategies", configs),
		zap.String("combiner", e.opts.Combiner.Name()),
	)
	started := time.Now()

	n := bs.Len()
	curve := make([]sim.EquityPoint, 0, n)
	signals := make([]BarSignal, 0, n)
	votes := make([]strategies.Signal, len(evals))

	it := bs.Iterator()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx, b := it.Index(), it.Bar()

		for i, ev := range evals {
			votes[i] = ev.Next(b)
		}
		state := strategies.PositionState{Long: ledger.Long(), CanAfford: ledger.CanBuy(b.Close)}
		decision := e.opts.Combiner.Combine(votes, state)

		executed, err := apply(ledger, decision, idx, b)
		if err != nil {
			return nil, err
		}
		signals = append(signals, BarSignal{
			Bar:      idx,
			Time:     b.Time,
			Votes:    append([]strategies.Signal(nil), votes...),
			Decision: decision,
			Executed: executed,
		})
		curve = append(curve, ledger.Mark(idx, b))
	}

	if n > 0 {
		last := bs.Bars[n-1]
		closed, err := ledger.Finalize(n-1, last, e.opts.Finalize)
		if err != nil {
			return nil, err
		}
		if closed.IsSome() {
			curve[n-1] = ledger.Mark(n-1, last)
		}
	}

	var openFee float64
	if ledger.Long() {
		openFee = ledger.Position().EntryCommission
	}

	res := &Result{
		RunID:       runID,
		Symbol:      bs.Symbol,
		Name:        bs.Name,
		Created:     time.Now().UTC(),
		Strategies:  configs,
		Combiner:    e.opts.Combiner.Name(),
		Finalize:    e.opts.Finalize,
		Trades:      nonNil(ledger.Trades()),
		Events:      nonNil(ledger.Events()),
		EquityCurve: curve,
		Signals:     signals,
		Position:    ledger.Position(),
	}
	res.Stats = stats.Compute(curve, res.Trades, bs.Bars, stats.Options{
		InitialCash:    e.opts.InitialCash,
		RiskFreeRate:   e.opts.RiskFreeRate,
		OpenCommission: openFee,
		Strategy:       configs,
	})

	log.Info("backtest finished",
		zap.Int("bars", n),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("equity_final", res.Stats.EquityFinal),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

// apply executes decision on the ledger. Refused orders (already long,
// flat, not enough cash) are no-ops.
func apply(l *sim.Ledger, decision strategies.Signal, idx int, b market.Bar) (bool, error) {
	var err error
	switch decision {
	case strategies.Buy:
		_, err = l.Buy(idx, b)
	case strategies.Sell:
		_, err = l.Sell(idx, b, "")
	default:
		return false, nil
	}
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, sim.ErrAlreadyLong), stderrors.Is(err, sim.ErrFlat), stderrors.Is(err, sim.ErrInsufficientCash):
		return false, nil
	}
	return false, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
