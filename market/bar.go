package market

import (
	"math"
	"time"

	"github.com/souloss/TradingLab/pkg/errors"
)

// Bar is one trading day of OHLCV data.
//
// Extra carries auxiliary per-bar values that came with the data (for
// example indicator columns exported by a charting tool). It is preserved
// through loading and serialization but never read by the signal rules.
type Bar struct {
	Time   time.Time          `json:"time"`
	Open   float64            `json:"open"`
	High   float64            `json:"high"`
	Low    float64            `json:"low"`
	Close  float64            `json:"close"`
	Volume float64            `json:"volume"`
	Extra  map[string]float64 `json:"extra,omitempty"`
}

// Date returns the bar's calendar day as YYYY-MM-DD.
func (b Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// Check validates the price invariants of a single bar. idx is only used
// to make the error message point at the offending row.
//
// Prices must be strictly positive: the simulator sizes positions by
// dividing cash by the close.
func (b Bar) Check(idx int) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeDataIntegrity,
				"bar %d (%s): non-finite value", idx, b.Date())
		}
	}
	if b.Close <= 0 || b.Open <= 0 || b.Low <= 0 {
		return errors.Newf(errors.ErrCodeDataIntegrity,
			"bar %d (%s): prices must be positive", idx, b.Date())
	}
	if b.High < math.Max(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeDataIntegrity,
			"bar %d (%s): high %.4f below max(open, close) %.4f",
			idx, b.Date(), b.High, math.Max(b.Open, b.Close))
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeDataIntegrity,
			"bar %d (%s): low %.4f above min(open, close) %.4f",
			idx, b.Date(), b.Low, math.Min(b.Open, b.Close))
	}
	if b.Volume < 0 {
		return errors.Newf(errors.ErrCodeDataIntegrity,
			"bar %d (%s): negative volume %.0f", idx, b.Date(), b.Volume)
	}
	return nil
}

// TypicalRange is the high-low span of the bar.
func (b Bar) TypicalRange() float64 {
	return b.High - b.Low
}
