package sim

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/pkg/id"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func bar(i int, close float64) market.Bar {
	return market.Bar{Time: day0.AddDate(0, 0, i), Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func newLedger(t *testing.T, opts Options) *Ledger {
	t.Helper()
	if opts.IDs == nil {
		opts.IDs = id.NewSeededGenerator(1, func() time.Time { return day0 })
	}
	l, err := NewLedger(opts)
	require.NoError(t, err)
	return l
}

func TestNewLedgerValidation(t *testing.T) {
	_, err := NewLedger(Options{InitialCash: 0, LotSize: 100})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewLedger(Options{InitialCash: 1000, LotSize: 0})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	l, err := NewLedger(Options{InitialCash: 1000, LotSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, l.Cash())
	assert.False(t, l.Long())
}

func TestBuyRoundsDownToLots(t *testing.T) {
	l := newLedger(t, DefaultOptions())

	ev, err := l.Buy(0, bar(0, 19.5))
	require.NoError(t, err)

	// floor(100000 / 19.5 / 100) = 51 lots
	assert.Equal(t, int64(5100), ev.Shares)
	assert.Equal(t, SideBuy, ev.Side)
	assert.InDelta(t, 99450.0, ev.Amount, 1e-9)
	assert.InDelta(t, 29.835, ev.Commission, 1e-9)
	assert.InDelta(t, 100000-99450-29.835, l.Cash(), 1e-9)
	assert.InDelta(t, l.Cash(), ev.CashAfter, 1e-12)
	assert.True(t, l.Long())
	assert.Equal(t, 19.5, l.Position().EntryPrice)
	assert.InDelta(t, 29.835, l.Commissions(), 1e-9)
}

func TestBuyReducesLotWhenCommissionDoesNotFit(t *testing.T) {
	// 10 000 buys exactly 10 lots at 10.00 but not the commission on top.
	l := newLedger(t, Options{InitialCash: 10_000, LotSize: 100, Commission: Percent{Rate: decimal.NewFromFloat(0.001)}})

	ev, err := l.Buy(0, bar(0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(900), ev.Shares)
	assert.InDelta(t, 10_000-9000-9, l.Cash(), 1e-9)
}

func TestBuyInsufficientCashIsNoOp(t *testing.T) {
	l := newLedger(t, Options{InitialCash: 500, LotSize: 100})

	assert.False(t, l.CanBuy(10))
	_, err := l.Buy(0, bar(0, 10))
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.Equal(t, 500.0, l.Cash())
	assert.False(t, l.Long())
	assert.Empty(t, l.Events())
}

func TestNoPyramidingNoShorting(t *testing.T) {
	l := newLedger(t, DefaultOptions())

	_, err := l.Sell(0, bar(0, 10), "")
	assert.ErrorIs(t, err, ErrFlat)

	_, err = l.Buy(1, bar(1, 10))
	require.NoError(t, err)
	assert.False(t, l.CanBuy(10))

	_, err = l.Buy(2, bar(2, 10))
	assert.ErrorIs(t, err, ErrAlreadyLong)
	assert.Len(t, l.Events(), 1)
}

func TestRoundTrip(t *testing.T) {
	l := newLedger(t, Options{InitialCash: 100_000, LotSize: 100, Commission: Zero{}})

	_, err := l.Buy(3, bar(3, 10))
	require.NoError(t, err)
	trade, err := l.Sell(8, bar(8, 12), "")
	require.NoError(t, err)

	assert.Equal(t, int64(10_000), trade.Size)
	assert.Equal(t, 3, trade.EntryBar)
	assert.Equal(t, 8, trade.ExitBar)
	assert.InDelta(t, 20_000.0, trade.PnL, 1e-9)
	assert.InDelta(t, 20.0, trade.ReturnPct, 1e-9)
	assert.Equal(t, 5*24*time.Hour, trade.Duration())
	assert.Equal(t, int64(5*24*3600), trade.DurationSeconds)
	assert.True(t, trade.Winner())
	assert.True(t, trade.Tag.IsNone())
	assert.True(t, trade.StopLoss.IsNone())
	assert.True(t, trade.TakeProfit.IsNone())
	assert.False(t, trade.Synthetic)
	assert.InDelta(t, 120_000.0, l.Cash(), 1e-9)
	assert.False(t, l.Long())
}

func TestCommissionModels(t *testing.T) {
	amount := decimal.NewFromInt(10_000)

	pct, err := NewCommission("", 0.0003, 0)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(pct.Fee(amount)))

	minPct, err := NewCommission("min_percent", 0.0003, 5)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(minPct.Fee(amount)))
	assert.Equal(t, CommissionMinPercent, minPct.Name())

	zero, err := NewCommission("zero", 0.1, 0)
	require.NoError(t, err)
	assert.True(t, zero.Fee(amount).IsZero())

	_, err = NewCommission("tiered", 0.1, 0)
	assert.True(t, errors.IsConfiguration(err))
	_, err = NewCommission("percent", -0.1, 0)
	assert.True(t, errors.IsConfiguration(err))
}

func TestFinalizePolicy(t *testing.T) {
	p, err := ParseFinalizePolicy("")
	require.NoError(t, err)
	assert.Equal(t, MarkToMarket, p)
	p, err = ParseFinalizePolicy("CLOSE_AT_END")
	require.NoError(t, err)
	assert.Equal(t, CloseAtEnd, p)
	_, err = ParseFinalizePolicy("liquidate")
	assert.Error(t, err)

	t.Run("mark to market keeps position", func(t *testing.T) {
		l := newLedger(t, DefaultOptions())
		_, _ = l.Buy(0, bar(0, 10))
		tr, err := l.Finalize(1, bar(1, 11), MarkToMarket)
		require.NoError(t, err)
		assert.True(t, tr.IsNone())
		assert.True(t, l.Long())
		assert.Empty(t, l.Trades())
	})

	t.Run("close at end records synthetic trade", func(t *testing.T) {
		l := newLedger(t, DefaultOptions())
		_, _ = l.Buy(0, bar(0, 10))
		tr, err := l.Finalize(1, bar(1, 11), CloseAtEnd)
		require.NoError(t, err)
		require.True(t, tr.IsSome())
		assert.True(t, tr.Unwrap().Synthetic)
		assert.Equal(t, EndOfRunTag, tr.Unwrap().Tag.Unwrap())
		assert.False(t, l.Long())
		assert.Len(t, l.Trades(), 1)
	})

	t.Run("close at end while flat", func(t *testing.T) {
		l := newLedger(t, DefaultOptions())
		tr, err := l.Finalize(1, bar(1, 11), CloseAtEnd)
		require.NoError(t, err)
		assert.True(t, tr.IsNone())
	})
}

func TestMarkDrawdown(t *testing.T) {
	l := newLedger(t, Options{InitialCash: 100_000, LotSize: 100, Commission: Zero{}})
	_, err := l.Buy(0, bar(0, 10))
	require.NoError(t, err)

	p0 := l.Mark(0, bar(0, 10))
	assert.Equal(t, 100_000.0, p0.Equity)
	assert.Zero(t, p0.DrawdownPct)
	assert.True(t, p0.DrawdownDuration.IsNone())
	assert.True(t, p0.Exposed())

	p1 := l.Mark(1, bar(1, 8))
	assert.InDelta(t, 80_000.0, p1.Equity, 1e-9)
	assert.InDelta(t, 20.0, p1.DrawdownPct, 1e-9)
	assert.Equal(t, int64(24*3600), p1.DrawdownDuration.Unwrap())

	p2 := l.Mark(2, bar(2, 10.5))
	assert.Zero(t, p2.DrawdownPct)
	assert.Equal(t, 10.5, l.Position().LastPrice)
}

func TestEventsToTradesMatchesLedger(t *testing.T) {
	l := newLedger(t, DefaultOptions())
	prices := []float64{10, 10.5, 9.8, 11.2, 11, 12.4, 12.1, 13}
	for i, p := range prices {
		var err error
		if i%2 == 0 {
			_, err = l.Buy(i, bar(i, p))
		} else {
			_, err = l.Sell(i, bar(i, p), "signal")
		}
		require.NoError(t, err)
	}
	// leave one open
	_, err := l.Buy(8, bar(8, 12))
	require.NoError(t, err)

	assert.Len(t, l.Events(), 9)
	assert.Equal(t, l.Trades(), EventsToTrades(l.Events()))
	assert.Len(t, l.Trades(), 4)
}

func TestEventsToTradesIgnoresStraySell(t *testing.T) {
	events := []LedgerEvent{
		{ID: "s", Side: SideSell, Amount: 100},
		{ID: "b", Side: SideBuy, Amount: 100, Shares: 10, Price: 10, Time: day0},
		{ID: "s2", Side: SideSell, Amount: 110, Shares: 10, Price: 11, Time: day0.AddDate(0, 0, 1)},
	}
	trades := EventsToTrades(events)
	require.Len(t, trades, 1)
	assert.Equal(t, "b", trades[0].ID)
	assert.InDelta(t, 10.0, trades[0].PnL, 1e-9)
}

func TestTradeJSONUsesNulls(t *testing.T) {
	l := newLedger(t, DefaultOptions())
	_, _ = l.Buy(0, bar(0, 10))
	tr, err := l.Sell(1, bar(1, 11), "")
	require.NoError(t, err)

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sl":null`)
	assert.Contains(t, string(data), `"tag":null`)
}

// Property: for random prices and random BUY/SELL attempts the ledger
// invariant holds after every bar, cash stays non-negative and holdings are
// whole lots.
func TestLedgerInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		lot := int64(1 + r.Intn(200))
		l := newLedger(t, Options{
			InitialCash: 1000 + r.Float64()*200_000,
			LotSize:     lot,
			Commission:  MinPercent{Rate: decimal.NewFromFloat(r.Float64() * 0.003), Minimum: decimal.NewFromFloat(r.Float64())},
		})

		price := 5 + r.Float64()*100
		for i := 0; i < 300; i++ {
			price *= 1 + (r.Float64()-0.5)*0.1
			b := bar(i, price)

			wasLong := l.Long()
			switch r.Intn(3) {
			case 0:
				_, err := l.Buy(i, b)
				if wasLong {
					require.ErrorIs(t, err, ErrAlreadyLong)
				}
			case 1:
				_, err := l.Sell(i, b, "")
				if !wasLong {
					require.ErrorIs(t, err, ErrFlat)
				}
			}

			p := l.Mark(i, b)
			require.GreaterOrEqual(t, p.Cash, 0.0, "seed %d bar %d", seed, i)
			require.GreaterOrEqual(t, p.Shares, int64(0))
			require.Zero(t, p.Shares%lot)
			require.InDelta(t, p.Cash+float64(p.Shares)*b.Close, p.Equity, 1e-6*max(1, p.Equity))
			require.GreaterOrEqual(t, p.DrawdownPct, 0.0)
		}

		// fills alternate BUY, SELL, BUY, ...
		for i, ev := range l.Events() {
			want := SideBuy
			if i%2 == 1 {
				want = SideSell
			}
			require.Equal(t, want, ev.Side)
		}
	}
}
