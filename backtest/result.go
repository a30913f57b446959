package backtest

import (
	"time"

	"github.com/souloss/TradingLab/sim"
	"github.com/souloss/TradingLab/stats"
	"github.com/souloss/TradingLab/strategies"
)

// BarSignal records the votes and the combined decision at one bar.
type BarSignal struct {
	Bar      int                 `json:"bar"`
	Time     time.Time           `json:"time"`
	Votes    []strategies.Signal `json:"votes"`
	Decision strategies.Signal   `json:"decision"`
	// Executed is false when the ledger refused the decision.
	Executed bool `json:"executed"`
}

// Result is everything one run produced.
type Result struct {
	RunID      string              `json:"run_id"`
	Symbol     string              `json:"symbol"`
	Name       string              `json:"name,omitempty"`
	Created    time.Time           `json:"created"`
	Strategies []strategies.Config `json:"strategies"`
	Combiner   string              `json:"combiner"`
	Finalize   sim.FinalizePolicy  `json:"finalize"`

	Trades      []sim.Trade       `json:"trades"`
	Events      []sim.LedgerEvent `json:"events"`
	EquityCurve []sim.EquityPoint `json:"equity_curve"`
	Signals     []BarSignal       `json:"signals"`
	// Position is the holding left open at the end, if any.
	Position sim.Position `json:"position"`

	Stats stats.BacktestStats `json:"stats"`
}

// LastSignal is the decision executed on the final bar, or HOLD.
func (r *Result) LastSignal() strategies.Signal {
	if len(r.Signals) == 0 {
		return strategies.Hold
	}
	last := r.Signals[len(r.Signals)-1]
	if !last.Executed {
		return strategies.Hold
	}
	return last.Decision
}

// FillsOn counts BUY and SELL fills on the calendar day of t.
func (r *Result) FillsOn(t time.Time) (buys, sells int) {
	y, m, d := t.Date()
	for _, ev := range r.Events {
		ey, em, ed := ev.Time.Date()
		if ey != y || em != m || ed != d {
			continue
		}
		switch ev.Side {
		case sim.SideBuy:
			buys++
		case sim.SideSell:
			sells++
		}
	}
	return buys, sells
}

// Selection summarizes a run for stock screening: the return and what the
// strategy did on the last bar.
type Selection struct {
	Symbol    string            `json:"symbol"`
	RunID     string            `json:"run_id"`
	ReturnPct stats.Float       `json:"return_pct"`
	Signal    strategies.Signal `json:"signal"`
	BuyCount  int               `json:"buy_count"`
	SellCount int               `json:"sell_count"`
}

// Selection builds the screening summary for r.
func (r *Result) Selection() Selection {
	s := Selection{
		Symbol:    r.Symbol,
		RunID:     r.RunID,
		ReturnPct: r.Stats.ReturnPct,
		Signal:    r.LastSignal(),
	}
	if n := len(r.Signals); n > 0 {
		s.BuyCount, s.SellCount = r.FillsOn(r.Signals[n-1].Time)
	}
	return s
}
