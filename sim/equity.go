package sim

import (
	"time"

	"github.com/moznion/go-optional"
)

// EquityPoint is the account value after one bar.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Bar    int       `json:"bar"`
	Close  float64   `json:"close"`
	Equity float64   `json:"equity"`
	Cash   float64   `json:"cash"`
	Shares int64     `json:"shares"`
	// DrawdownPct is the decline from the running equity peak, ×100.
	DrawdownPct float64 `json:"drawdown_pct"`
	// DrawdownDuration is the time since that peak, in seconds, while in
	// drawdown.
	DrawdownDuration optional.Option[int64] `json:"drawdown_duration_seconds"`
}

// Exposed reports whether a position was held at this point.
func (p EquityPoint) Exposed() bool {
	return p.Shares > 0
}
