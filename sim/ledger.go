// Package sim simulates a cash account holding at most one long position in
// a single instrument. Orders fill at the bar's close, in whole lots, with a
// commission on each fill. There is no pyramiding and no shorting.
package sim

import (
	stderrors "errors"
	"math"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/pkg/id"
)

var (
	// ErrAlreadyLong is returned by Buy while a position is open.
	ErrAlreadyLong = stderrors.New("sim: already long")
	// ErrFlat is returned by Sell when there is nothing to sell.
	ErrFlat = stderrors.New("sim: no open position")
	// ErrInsufficientCash is returned by Buy when cash does not cover one
	// lot plus commission. The ledger is left untouched.
	ErrInsufficientCash = stderrors.New("sim: insufficient cash for one lot")
)

// FinalizePolicy decides what happens to a position still open after the
// last bar.
type FinalizePolicy string

const (
	// MarkToMarket leaves the position open; it is valued at the final
	// close and contributes no trade record.
	MarkToMarket FinalizePolicy = "mark_to_market"
	// CloseAtEnd sells the position at the final close, paying
	// commission, and records a synthetic trade.
	CloseAtEnd FinalizePolicy = "close_at_end"
)

// EndOfRunTag marks trades closed by CloseAtEnd.
const EndOfRunTag = "end_of_run"

// ParseFinalizePolicy accepts the policy names; empty means MarkToMarket.
func ParseFinalizePolicy(s string) (FinalizePolicy, error) {
	switch FinalizePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkToMarket:
		return MarkToMarket, nil
	case CloseAtEnd:
		return CloseAtEnd, nil
	}
	return "", errors.Newf(errors.ErrCodeInvalidConfiguration,
		"unknown finalize policy %q (supported: mark_to_market, close_at_end)", s)
}

// Options configures a Ledger.
type Options struct {
	InitialCash float64
	LotSize     int64
	Commission  CommissionModel
	// IDs generates trade and event identifiers. A fresh generator is
	// created when nil.
	IDs *id.Generator
}

// DefaultOptions returns 100 000 cash, 100-share lots and a 0.03% commission.
func DefaultOptions() Options {
	return Options{
		InitialCash: 100_000,
		LotSize:     100,
		Commission:  Percent{Rate: decimal.NewFromFloat(0.0003)},
	}
}

// Ledger tracks cash, the open position and the fills of one run. It is
// not safe for concurrent use; each run owns its own Ledger.
type Ledger struct {
	lot        decimal.Decimal
	lotSize    int64
	commission CommissionModel
	ids        *id.Generator

	cash decimal.Decimal
	pos  Position

	trades []Trade
	events []LedgerEvent
	fees   decimal.Decimal

	peak     float64
	peakTime time.Time
	marked   bool
}

// NewLedger validates opts and returns a FLAT ledger.
func NewLedger(opts Options) (*Ledger, error) {
	if opts.InitialCash <= 0 || math.IsNaN(opts.InitialCash) || math.IsInf(opts.InitialCash, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial cash must be positive, got %v", opts.InitialCash)
	}
	if opts.LotSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "lot size must be positive, got %d", opts.LotSize)
	}
	if opts.Commission == nil {
		opts.Commission = DefaultOptions().Commission
	}
	if opts.IDs == nil {
		opts.IDs = id.NewGenerator()
	}

	return &Ledger{
		lot:        decimal.NewFromInt(opts.LotSize),
		lotSize:    opts.LotSize,
		commission: opts.Commission,
		ids:        opts.IDs,
		cash:       decimal.NewFromFloat(opts.InitialCash),
	}, nil
}

func (l *Ledger) Cash() float64 {
	return l.cash.InexactFloat64()
}

func (l *Ledger) Shares() int64 {
	return l.pos.Shares
}

// Long reports whether a position is open.
func (l *Ledger) Long() bool {
	return l.pos.Open()
}

func (l *Ledger) Position() Position {
	return l.pos
}

// Trades returns the completed trades so far.
func (l *Ledger) Trades() []Trade {
	return append([]Trade(nil), l.trades...)
}

// Events returns every fill so far.
func (l *Ledger) Events() []LedgerEvent {
	return append([]LedgerEvent(nil), l.events...)
}

// Commissions is the total commission paid, including the entry fee of an
// open position.
func (l *Ledger) Commissions() float64 {
	return l.fees.InexactFloat64()
}

// Equity values the account at price: cash + shares × price.
func (l *Ledger) Equity(price float64) float64 {
	return l.equity(decimal.NewFromFloat(price)).InexactFloat64()
}

func (l *Ledger) equity(price decimal.Decimal) decimal.Decimal {
	return l.cash.Add(decimal.NewFromInt(l.pos.Shares).Mul(price))
}

// affordable returns the largest whole-lot share count whose cost plus
// commission fits in cash, with its cost and fee.
func (l *Ledger) affordable(price decimal.Decimal) (shares int64, cost, fee decimal.Decimal) {
	if !price.IsPositive() {
		return 0, decimal.Zero, decimal.Zero
	}
	lots := l.cash.Div(price.Mul(l.lot)).Floor().IntPart()
	for ; lots > 0; lots-- {
		shares = lots * l.lotSize
		cost = decimal.NewFromInt(shares).Mul(price)
		fee = l.commission.Fee(cost)
		if cost.Add(fee).LessThanOrEqual(l.cash) {
			return shares, cost, fee
		}
	}
	return 0, decimal.Zero, decimal.Zero
}

// CanBuy reports whether a BUY at price would fill: the ledger is FLAT and
// cash covers at least one lot including commission.
func (l *Ledger) CanBuy(price float64) bool {
	if l.Long() {
		return false
	}
	shares, _, _ := l.affordable(decimal.NewFromFloat(price))
	return shares > 0
}

// Buy spends as much cash as whole lots allow at the bar's close.
func (l *Ledger) Buy(idx int, b market.Bar) (LedgerEvent, error) {
	if l.Long() {
		return LedgerEvent{}, ErrAlreadyLong
	}

	price := decimal.NewFromFloat(b.Close)
	shares, cost, fee := l.affordable(price)
	if shares == 0 {
		return LedgerEvent{}, ErrInsufficientCash
	}

	l.cash = l.cash.Sub(cost).Sub(fee)
	l.fees = l.fees.Add(fee)

	ev := LedgerEvent{
		ID:         l.ids.New(),
		Time:       b.Time,
		Bar:        idx,
		Side:       SideBuy,
		Price:      b.Close,
		Shares:     shares,
		Amount:     cost.InexactFloat64(),
		Commission: fee.InexactFloat64(),
		CashAfter:  l.cash.InexactFloat64(),
	}
	l.events = append(l.events, ev)
	l.pos = Position{
		Shares:          shares,
		EntryPrice:      b.Close,
		EntryTime:       b.Time,
		EntryBar:        idx,
		EntryCommission: ev.Commission,
		LastPrice:       b.Close,
		entry:           ev,
	}
	return ev, nil
}

// Sell liquidates the whole position at the bar's close and records the
// completed trade. tag is optional.
func (l *Ledger) Sell(idx int, b market.Bar, tag string) (Trade, error) {
	return l.sell(idx, b, tag, false)
}

func (l *Ledger) sell(idx int, b market.Bar, tag string, synthetic bool) (Trade, error) {
	if !l.Long() {
		return Trade{}, ErrFlat
	}

	price := decimal.NewFromFloat(b.Close)
	proceeds := decimal.NewFromInt(l.pos.Shares).Mul(price)
	fee := l.commission.Fee(proceeds)

	l.cash = l.cash.Add(proceeds).Sub(fee)
	l.fees = l.fees.Add(fee)

	ev := LedgerEvent{
		ID:         l.ids.New(),
		Time:       b.Time,
		Bar:        idx,
		Side:       SideSell,
		Price:      b.Close,
		Shares:     l.pos.Shares,
		Amount:     proceeds.InexactFloat64(),
		Commission: fee.InexactFloat64(),
		CashAfter:  l.cash.InexactFloat64(),
		Tag:        tag,
		Synthetic:  synthetic,
	}
	l.events = append(l.events, ev)

	trade := pairTrade(l.pos.entry, ev)
	l.trades = append(l.trades, trade)
	l.pos = Position{}
	return trade, nil
}

// Finalize applies policy after the last bar has been processed. With
// CloseAtEnd an open position is sold at b's close and the synthetic trade
// is returned.
func (l *Ledger) Finalize(idx int, b market.Bar, policy FinalizePolicy) (optional.Option[Trade], error) {
	if policy != CloseAtEnd || !l.Long() {
		return optional.None[Trade](), nil
	}
	t, err := l.sell(idx, b, EndOfRunTag, true)
	if err != nil {
		return optional.None[Trade](), err
	}
	return optional.Some(t), nil
}

// Mark values the account at the bar's close and returns the equity point,
// including the drawdown from the running equity peak.
func (l *Ledger) Mark(idx int, b market.Bar) EquityPoint {
	if l.Long() {
		l.pos.LastPrice = b.Close
	}
	equity := l.equity(decimal.NewFromFloat(b.Close)).InexactFloat64()

	if !l.marked || equity > l.peak {
		l.peak = equity
		l.peakTime = b.Time
		l.marked = true
	}

	p := EquityPoint{
		Time:             b.Time,
		Bar:              idx,
		Close:            b.Close,
		Equity:           equity,
		Cash:             l.Cash(),
		Shares:           l.pos.Shares,
		DrawdownDuration: optional.None[int64](),
	}
	if l.peak > 0 && equity < l.peak {
		p.DrawdownPct = (l.peak - equity) / l.peak * 100
		p.DrawdownDuration = optional.Some(int64(b.Time.Sub(l.peakTime) / time.Second))
	}
	return p
}
