// Package indicators provides technical analysis indicators for trading
//
// Every indicator comes in two forms. Batch functions (SMA, EMA, MACD, ATR)
// return a Series aligned with their input, holding None for bars inside the
// warm-up window. Streaming types (SimpleMA, ExponentialMA, AverageTrueRange,
// MACDLine) consume one bar at a time in O(1) and perform the same floating
// point operations in the same order, so both forms agree bit for bit.
package indicators

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
)

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in backtests and batch runs.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. If !Ready(), it returns 0;
	// callers should always check Ready().
	Value() float64
}

// Source selects the input field of a bar.
type Source func(market.Bar) float64

var (
	Close  Source = func(b market.Bar) float64 { return b.Close }
	Volume Source = func(b market.Bar) float64 { return b.Volume }
)

// Series is an indicator output aligned index-for-index with its input.
type Series []optional.Option[float64]

// At returns the value at i, or None when i is out of range or still in
// warm-up.
func (s Series) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(s) {
		return optional.None[float64]()
	}
	return s[i]
}

// Last returns the most recent value.
func (s Series) Last() optional.Option[float64] {
	return s.At(len(s) - 1)
}

// Defined counts the bars that carry a value.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.IsSome() {
			n++
		}
	}
	return n
}

// Floats flattens the series, using NaN for undefined bars.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.TakeOr(math.NaN())
	}
	return out
}

// Latest returns the last value of s or an InsufficientHistory error.
func Latest(s Series) (float64, error) {
	v, err := s.Last().Take()
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeInsufficientHistory,
			"not enough bars: %d of %d defined", s.Defined(), len(s))
	}
	return v, nil
}

// CheckPeriod validates a lookback period.
func CheckPeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be positive, got %d", name, period)
	}
	return nil
}

func none(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = optional.None[float64]()
	}
	return out
}
