package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/souloss/TradingLab/market"
)

func TestSimpleMAStreaming(t *testing.T) {
	bars := createTestBars()

	t.Run("basic functionality", func(t *testing.T) {
		ma := NewMA(3)
		assert.Equal(t, "MA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.False(t, ma.Ready())

		// Update with third bar - should be ready now
		ma.Update(bars[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 0.001)

		// Update with fourth bar - should use last 3
		ma.Update(bars[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 0.001)
	})

	t.Run("reset functionality", func(t *testing.T) {
		ma := NewMA(2)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})

	t.Run("volume source", func(t *testing.T) {
		ma := NewMAOf(2, Volume)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.InDelta(t, 1050.0, ma.Value(), 1e-9)
	})

	t.Run("non-positive period never ready", func(t *testing.T) {
		ma := NewMA(0)
		for _, b := range bars {
			ma.Update(b)
		}
		assert.False(t, ma.Ready())
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	bars := createTestBars()

	t.Run("basic functionality", func(t *testing.T) {
		ema := NewEMA(3)
		assert.Equal(t, "EMA(3)", ema.Name())
		assert.Equal(t, 3, ema.Warmup())
		assert.False(t, ema.Ready())

		ema.Update(bars[0])
		ema.Update(bars[1])
		assert.False(t, ema.Ready())

		// Update with third bar - should initialize with SMA
		ema.Update(bars[2])
		assert.True(t, ema.Ready())
		expectedSMA := (102.0 + 105.0 + 106.0) / 3.0
		assert.InDelta(t, expectedSMA, ema.Value(), 0.001)

		// multiplier = 2/(3+1) = 0.5
		ema.Update(bars[3])
		assert.InDelta(t, (108.0-expectedSMA)*0.5+expectedSMA, ema.Value(), 0.001)
	})

	t.Run("reset functionality", func(t *testing.T) {
		ema := NewEMA(2)
		ema.Update(bars[0])
		ema.Update(bars[1])
		ema.Reset()
		assert.False(t, ema.Ready())
		assert.Equal(t, 0.0, ema.Value())
	})
}

func TestAverageTrueRangeStreaming(t *testing.T) {
	atr := NewATR(3)
	assert.Equal(t, "ATR(3)", atr.Name())
	assert.Equal(t, 4, atr.Warmup())

	bars := createTestBars()
	for i, b := range bars[:4] {
		atr.Update(b)
		assert.Equal(t, i == 3, atr.Ready(), "bar %d", i)
	}

	atr.Reset()
	assert.False(t, atr.Ready())
}

func TestMACDLineStreaming(t *testing.T) {
	m := NewMACD(12, 26, 9)
	assert.Equal(t, "MACD(12,26,9)", m.Name())
	assert.Equal(t, 34, m.Warmup())

	for i, b := range randomWalk(5, 34) {
		m.Update(b)
		assert.Equal(t, i >= 25, m.Ready(), "bar %d", i)
		assert.Equal(t, i >= 33, m.SignalReady(), "bar %d", i)
	}
	assert.InDelta(t, m.Value()-m.SignalValue(), m.Histogram(), 1e-12)
}

// Streaming indicators must reproduce the batch series exactly, not just
// approximately: both sides perform the same operations in the same order.
func TestStreamingMatchesBatch(t *testing.T) {
	bars := randomWalk(42, 400)
	closes := market.Closes(bars)

	sma, _ := SMA(closes, 20)
	ema, _ := EMA(closes, 12)
	atr, _ := ATR(bars, 14)
	vol, _ := VolumeMean(bars, 20)
	macd, _ := MACD(closes, 12, 26, 9)

	sMA := NewMA(20)
	sEMA := NewEMA(12)
	sATR := NewATR(14)
	sVol := NewMAOf(20, Volume)
	sMACD := NewMACD(12, 26, 9)

	check := func(t *testing.T, name string, i int, want Series, ind Indicator) {
		t.Helper()
		if want[i].IsNone() {
			assert.False(t, ind.Ready(), "%s bar %d", name, i)
			return
		}
		assert.True(t, ind.Ready(), "%s bar %d", name, i)
		assert.Equal(t, want[i].Unwrap(), ind.Value(), "%s bar %d", name, i)
	}

	for i, b := range bars {
		for _, ind := range []Indicator{sMA, sEMA, sATR, sVol, sMACD} {
			ind.Update(b)
		}
		check(t, "sma", i, sma, sMA)
		check(t, "ema", i, ema, sEMA)
		check(t, "atr", i, atr, sATR)
		check(t, "volume", i, vol, sVol)
		check(t, "macd", i, macd.Line, sMACD)
		if macd.Signal[i].IsSome() {
			assert.Equal(t, macd.Signal[i].Unwrap(), sMACD.SignalValue(), "signal bar %d", i)
		}
	}
}
