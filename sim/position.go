package sim

import "time"

// Position is the open long holding, if any. Shares is zero when FLAT.
type Position struct {
	Shares          int64     `json:"shares"`
	EntryPrice      float64   `json:"entry_price"`
	EntryTime       time.Time `json:"entry_time"`
	EntryBar        int       `json:"entry_bar"`
	EntryCommission float64   `json:"entry_commission"`
	LastPrice       float64   `json:"last_price"`

	entry LedgerEvent
}

// Open reports whether the position is LONG.
func (p Position) Open() bool {
	return p.Shares > 0
}

// UnrealizedPL values the position at price, net of the entry commission.
func (p Position) UnrealizedPL(price float64) float64 {
	if !p.Open() {
		return 0
	}
	return float64(p.Shares)*(price-p.EntryPrice) - p.EntryCommission
}
