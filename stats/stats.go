// Package stats derives the performance report of a backtest run from its
// equity curve and trade list.
//
// Every value that can be mathematically undefined (a zero denominator, a
// sample smaller than two, a non-finite result) is an optional.Option that
// marshals to JSON null.
package stats

import (
	"math"
	"time"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/sim"
	"github.com/souloss/TradingLab/strategies"
)

// DefaultTradingDays is the number of bars per year used for annualizing.
const DefaultTradingDays = 252

// Options parameterizes Compute.
type Options struct {
	// InitialCash is the starting account value. When zero the first
	// equity point is used.
	InitialCash float64
	// RiskFreeRate is the annual risk-free rate as a fraction (0.02 = 2%).
	RiskFreeRate float64
	// TradingDays defaults to DefaultTradingDays.
	TradingDays int
	// OpenCommission is commission paid on a position that is still open
	// at the end of the run and so appears in no trade.
	OpenCommission float64
	// Strategy is echoed into the report.
	Strategy []strategies.Config
}

// Float is a statistic that may be undefined.
type Float = optional.Option[float64]

// Seconds is a duration statistic that may be undefined.
type Seconds = optional.Option[int64]

// BacktestStats is the full performance report. Field names in JSON are
// the external contract consumed by charting and storage.
type BacktestStats struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds int64     `json:"duration_seconds"`
	ExposureTimePct Float     `json:"exposure_time_pct"`

	EquityFinal float64 `json:"equity_final"`
	EquityPeak  float64 `json:"equity_peak"`
	Commissions float64 `json:"commissions"`

	ReturnPct        Float `json:"return_pct"`
	BuyHoldReturnPct Float `json:"buy_hold_return_pct"`
	ReturnAnnPct     Float `json:"return_ann_pct"`
	VolatilityAnnPct Float `json:"volatility_ann_pct"`
	CAGRPct          Float `json:"cagr_pct"`
	SharpeRatio      Float `json:"sharpe_ratio"`
	SortinoRatio     Float `json:"sortino_ratio"`
	CalmarRatio      Float `json:"calmar_ratio"`
	AlphaPct         Float `json:"alpha_pct"`
	Beta             Float `json:"beta"`

	MaxDrawdownPct             Float                  `json:"max_drawdown_pct"`
	AvgDrawdownPct             Float                  `json:"avg_drawdown_pct"`
	MaxDrawdownDurationSeconds Seconds                `json:"max_drawdown_duration_seconds"`
	AvgDrawdownDurationSeconds Seconds                `json:"avg_drawdown_duration_seconds"`
	MaxDrawdownDurationBars    optional.Option[int64] `json:"max_drawdown_duration_bars"`

	NTrades                 int     `json:"n_trades"`
	WinRatePct              Float   `json:"win_rate_pct"`
	BestTradePct            Float   `json:"best_trade_pct"`
	WorstTradePct           Float   `json:"worst_trade_pct"`
	AvgTradePct             Float   `json:"avg_trade_pct"`
	MaxTradeDurationSeconds Seconds `json:"max_trade_duration_seconds"`
	AvgTradeDurationSeconds Seconds `json:"avg_trade_duration_seconds"`
	ProfitFactor            Float   `json:"profit_factor"`
	ExpectancyPct           Float   `json:"expectancy_pct"`
	SQN                     Float   `json:"sqn"`
	KellyCriterion          Float   `json:"kelly_criterion"`

	EquityCurve []sim.EquityPoint   `json:"equity_curve"`
	Trades      []sim.Trade         `json:"trades"`
	Strategy    []strategies.Config `json:"strategy"`
}

// Compute builds the report. bars is the price series the curve was
// produced from; it supplies the buy-and-hold benchmark. Compute never
// fails: an empty curve yields a report whose ratios are all undefined.
func Compute(curve []sim.EquityPoint, trades []sim.Trade, bars []market.Bar, opts Options) BacktestStats {
	days := opts.TradingDays
	if days <= 0 {
		days = DefaultTradingDays
	}

	s := BacktestStats{
		EquityCurve: nonNilCurve(curve),
		Trades:      nonNilTrades(trades),
		Strategy:    opts.Strategy,
		Commissions: opts.OpenCommission,
	}
	if s.Strategy == nil {
		s.Strategy = []strategies.Config{}
	}
	for _, t := range trades {
		s.Commissions += t.Commission
	}

	s.fillEquity(curve, bars, opts, days)
	s.fillTrades(trades)
	return s
}

// ComputeEvents accepts the flat ledger-event view and pairs it into
// trades before computing.
func ComputeEvents(curve []sim.EquityPoint, events []sim.LedgerEvent, bars []market.Bar, opts Options) BacktestStats {
	return Compute(curve, sim.EventsToTrades(events), bars, opts)
}

func (s *BacktestStats) fillEquity(curve []sim.EquityPoint, bars []market.Bar, opts Options, days int) {
	initial := opts.InitialCash
	if initial <= 0 && len(curve) > 0 {
		initial = curve[0].Equity
	}

	s.EquityFinal = initial
	s.EquityPeak = initial
	s.BuyHoldReturnPct = buyAndHold(bars, curve)

	n := len(curve)
	if n == 0 {
		if initial > 0 {
			s.ReturnPct = finite(0)
		}
		return
	}

	first, last := curve[0], curve[n-1]
	s.Start = first.Time
	s.End = last.Time
	s.DurationSeconds = int64(last.Time.Sub(first.Time) / time.Second)
	s.EquityFinal = last.Equity

	exposed := 0
	equity := make([]float64, n)
	for i, p := range curve {
		equity[i] = p.Equity
		if p.Equity > s.EquityPeak {
			s.EquityPeak = p.Equity
		}
		if p.Exposed() {
			exposed++
		}
	}
	s.ExposureTimePct = finite(float64(exposed) / float64(n) * 100)

	if initial > 0 {
		s.ReturnPct = finite((last.Equity - initial) / initial * 100)
	}

	ann := annualized(equity, days)
	s.ReturnAnnPct = pct(ann)
	s.CAGRPct = pct(cagr(equity, last.Time.Sub(first.Time)))

	returns := dailyReturns(equity)
	scale := math.Sqrt(float64(days))
	if sd, ok := stdev(returns); ok {
		s.VolatilityAnnPct = finite(sd * scale * 100)
		if sd > 0 {
			s.SharpeRatio = finite((mean(returns) - opts.RiskFreeRate/float64(days)) / sd * scale)
		}
	}
	s.SortinoRatio = sortino(returns, opts.RiskFreeRate/float64(days), scale)

	dd := drawdowns(curve)
	s.MaxDrawdownPct = finite(dd.max * 100)
	s.AvgDrawdownPct = finite(dd.avg * 100)
	s.MaxDrawdownDurationSeconds = optional.Some(dd.maxSeconds)
	s.AvgDrawdownDurationSeconds = optional.Some(dd.avgSeconds)
	s.MaxDrawdownDurationBars = optional.Some(dd.maxBars)

	if a, err := ann.Take(); err == nil && dd.max > 0 {
		s.CalmarRatio = finite(a / dd.max)
	}

	s.AlphaPct, s.Beta = alphaBeta(returns, dailyReturns(benchmark(bars, curve)), days)
}

func nonNilCurve(c []sim.EquityPoint) []sim.EquityPoint {
	if c == nil {
		return []sim.EquityPoint{}
	}
	return c
}

func nonNilTrades(t []sim.Trade) []sim.Trade {
	if t == nil {
		return []sim.Trade{}
	}
	return t
}

// finite maps NaN and ±Inf to None.
func finite(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return optional.None[float64]()
	}
	return optional.Some(v)
}

// pct scales a defined fraction to a percentage.
func pct(v Float) Float {
	f, err := v.Take()
	if err != nil {
		return v
	}
	return finite(f * 100)
}
