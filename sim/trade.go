package sim

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// Trade is one completed round trip: a BUY matched with the SELL that
// closed it.
type Trade struct {
	ID         string    `json:"id"`
	Size       int64     `json:"size"`
	EntryBar   int       `json:"entry_bar"`
	ExitBar    int       `json:"exit_bar"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`

	// StopLoss and TakeProfit are reserved for bracket exits. No rule sets
	// them yet, so the simulator always leaves them undefined; they are
	// still persisted and exported as nulls.
	StopLoss   optional.Option[float64] `json:"sl"`
	TakeProfit optional.Option[float64] `json:"tp"`

	// Realized, net of both commissions
	PnL        float64 `json:"pnl"`
	Commission float64 `json:"commission"`
	ReturnPct  float64 `json:"return_pct"`

	DurationSeconds int64                   `json:"duration_seconds"`
	Tag             optional.Option[string] `json:"tag"`
	// Synthetic is set when the position was closed by the end-of-run
	// policy rather than by a SELL signal.
	Synthetic bool `json:"synthetic"`
}

// Duration is the holding period.
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// Winner reports whether the trade made money after commissions.
func (t Trade) Winner() bool {
	return t.PnL > 0
}

// pairTrade builds the trade closed by sell. Both the ledger and
// EventsToTrades go through here so the two views agree exactly.
func pairTrade(buy, sell LedgerEvent) Trade {
	cost := decimal.NewFromFloat(buy.Amount).Add(decimal.NewFromFloat(buy.Commission))
	proceeds := decimal.NewFromFloat(sell.Amount).Sub(decimal.NewFromFloat(sell.Commission))
	pnl := proceeds.Sub(cost)

	ret := decimal.Zero
	if cost.IsPositive() {
		ret = pnl.Div(cost).Mul(decimal.NewFromInt(100))
	}

	t := Trade{
		ID:              buy.ID,
		Size:            buy.Shares,
		EntryBar:        buy.Bar,
		ExitBar:         sell.Bar,
		EntryTime:       buy.Time,
		ExitTime:        sell.Time,
		EntryPrice:      buy.Price,
		ExitPrice:       sell.Price,
		StopLoss:        optional.None[float64](),
		TakeProfit:      optional.None[float64](),
		PnL:             pnl.InexactFloat64(),
		Commission:      decimal.NewFromFloat(buy.Commission).Add(decimal.NewFromFloat(sell.Commission)).InexactFloat64(),
		ReturnPct:       ret.InexactFloat64(),
		DurationSeconds: int64(sell.Time.Sub(buy.Time) / time.Second),
		Tag:             optional.None[string](),
		Synthetic:       sell.Synthetic,
	}
	if sell.Tag != "" {
		t.Tag = optional.Some(sell.Tag)
	}
	return t
}
