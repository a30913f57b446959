package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

var metrics = map[string]func(*BacktestStats) Float{
	"equity_final":        func(s *BacktestStats) Float { return optional.Some(s.EquityFinal) },
	"equity_peak":         func(s *BacktestStats) Float { return optional.Some(s.EquityPeak) },
	"return_pct":          func(s *BacktestStats) Float { return s.ReturnPct },
	"buy_hold_return_pct": func(s *BacktestStats) Float { return s.BuyHoldReturnPct },
	"return_ann_pct":      func(s *BacktestStats) Float { return s.ReturnAnnPct },
	"volatility_ann_pct":  func(s *BacktestStats) Float { return s.VolatilityAnnPct },
	"cagr_pct":            func(s *BacktestStats) Float { return s.CAGRPct },
	"sharpe_ratio":        func(s *BacktestStats) Float { return s.SharpeRatio },
	"sortino_ratio":       func(s *BacktestStats) Float { return s.SortinoRatio },
	"calmar_ratio":        func(s *BacktestStats) Float { return s.CalmarRatio },
	"alpha_pct":           func(s *BacktestStats) Float { return s.AlphaPct },
	"beta":                func(s *BacktestStats) Float { return s.Beta },
	"max_drawdown_pct":    func(s *BacktestStats) Float { return s.MaxDrawdownPct },
	"avg_drawdown_pct":    func(s *BacktestStats) Float { return s.AvgDrawdownPct },
	"n_trades":            func(s *BacktestStats) Float { return optional.Some(float64(s.NTrades)) },
	"win_rate_pct":        func(s *BacktestStats) Float { return s.WinRatePct },
	"avg_trade_pct":       func(s *BacktestStats) Float { return s.AvgTradePct },
	"profit_factor":       func(s *BacktestStats) Float { return s.ProfitFactor },
	"expectancy_pct":      func(s *BacktestStats) Float { return s.ExpectancyPct },
	"sqn":                 func(s *BacktestStats) Float { return s.SQN },
	"kelly_criterion":     func(s *BacktestStats) Float { return s.KellyCriterion },
}

// Metrics lists the names accepted by Metric.
func Metrics() []string {
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsMetric reports whether name can be used with Metric.
func IsMetric(name string) bool {
	_, ok := metrics[name]
	return ok
}

// Metric looks a numeric statistic up by its JSON name. ok is false for an
// unknown name or an undefined value.
func (s *BacktestStats) Metric(name string) (float64, bool) {
	f, found := metrics[name]
	if !found {
		return 0, false
	}
	v, err := f(s).Take()
	return v, err == nil
}

// Row is one label/value line of a report.
type Row struct {
	Label string
	Value string
}

// Summary returns the report as ordered rows, formatted for display.
// Undefined values read "n/a".
func (s *BacktestStats) Summary() []Row {
	return []Row{
		{"Start", date(s.Start)},
		{"End", date(s.End)},
		{"Duration", days(s.DurationSeconds)},
		{"Exposure Time [%]", num(s.ExposureTimePct)},
		{"Equity Final", fmt.Sprintf("%.2f", s.EquityFinal)},
		{"Equity Peak", fmt.Sprintf("%.2f", s.EquityPeak)},
		{"Commissions", fmt.Sprintf("%.2f", s.Commissions)},
		{"Return [%]", num(s.ReturnPct)},
		{"Buy & Hold Return [%]", num(s.BuyHoldReturnPct)},
		{"Return (Ann.) [%]", num(s.ReturnAnnPct)},
		{"Volatility (Ann.) [%]", num(s.VolatilityAnnPct)},
		{"CAGR [%]", num(s.CAGRPct)},
		{"Sharpe Ratio", num(s.SharpeRatio)},
		{"Sortino Ratio", num(s.SortinoRatio)},
		{"Calmar Ratio", num(s.CalmarRatio)},
		{"Alpha [%]", num(s.AlphaPct)},
		{"Beta", num(s.Beta)},
		{"Max. Drawdown [%]", num(s.MaxDrawdownPct)},
		{"Avg. Drawdown [%]", num(s.AvgDrawdownPct)},
		{"Max. Drawdown Duration", dur(s.MaxDrawdownDurationSeconds)},
		{"Avg. Drawdown Duration", dur(s.AvgDrawdownDurationSeconds)},
		{"# Trades", fmt.Sprintf("%d", s.NTrades)},
		{"Win Rate [%]", num(s.WinRatePct)},
		{"Best Trade [%]", num(s.BestTradePct)},
		{"Worst Trade [%]", num(s.WorstTradePct)},
		{"Avg. Trade [%]", num(s.AvgTradePct)},
		{"Max. Trade Duration", dur(s.MaxTradeDurationSeconds)},
		{"Avg. Trade Duration", dur(s.AvgTradeDurationSeconds)},
		{"Profit Factor", num(s.ProfitFactor)},
		{"Expectancy [%]", num(s.ExpectancyPct)},
		{"SQN", num(s.SQN)},
		{"Kelly Criterion", num(s.KellyCriterion)},
	}
}

// Print writes the summary as a plain two-column listing.
func (s *BacktestStats) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Statistics")
	fmt.Fprintln(w, "==================================================")
	for _, r := range s.Summary() {
		fmt.Fprintf(w, "%-24s %s\n", r.Label+":", r.Value)
	}
}

func num(v Float) string {
	f, err := v.Take()
	if err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f)
}

func dur(v Seconds) string {
	secs, err := v.Take()
	if err != nil {
		return "n/a"
	}
	return days(secs)
}

func days(secs int64) string {
	d := time.Duration(secs) * time.Second
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", int64(d/(24*time.Hour)))
	}
	return d.String()
}

func date(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format("2006-01-02")
}
