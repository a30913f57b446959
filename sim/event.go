package sim

import "time"

// Side is the direction of a ledger event.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// LedgerEvent is one fill as a UI would list it. It is a flat view of the
// same information the Trade list carries.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Bar        int       `json:"bar"`
	Side       Side      `json:"type"`
	Price      float64   `json:"price"`
	Shares     int64     `json:"shares"`
	Amount     float64   `json:"amount"`
	Commission float64   `json:"commission"`
	CashAfter  float64   `json:"cash_after"`
	Tag        string    `json:"tag,omitempty"`
	Synthetic  bool      `json:"synthetic,omitempty"`
}

// EventsToTrades pairs each BUY with the following SELL. A trailing BUY
// without a SELL is an open position and produces no trade; unmatched
// SELLs are ignored.
func EventsToTrades(events []LedgerEvent) []Trade {
	var (
		trades []Trade
		open   *LedgerEvent
	)
	for i := range events {
		ev := events[i]
		switch ev.Side {
		case SideBuy:
			if open == nil {
				open = &ev
			}
		case SideSell:
			if open != nil {
				trades = append(trades, pairTrade(*open, ev))
				open = nil
			}
		}
	}
	return trades
}
