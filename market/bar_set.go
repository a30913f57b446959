package market

import (
	"time"

	"github.com/souloss/TradingLab/pkg/errors"
)

// BarSet is an ordered daily series for one instrument.
type BarSet struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
	Bars   []Bar  `json:"bars"`
}

// NewBarSet builds a BarSet and validates it.
func NewBarSet(symbol string, bars []Bar) (*BarSet, error) {
	bs := &BarSet{Symbol: symbol, Bars: bars}
	if err := bs.Validate(); err != nil {
		return nil, err
	}
	return bs, nil
}

// Validate rejects malformed input: bars out of date order (or on the same
// day) and OHLC values that contradict each other. The series is never
// repaired.
func (bs *BarSet) Validate() error {
	for i, b := range bs.Bars {
		if err := b.Check(i); err != nil {
			return err
		}
		if i > 0 && !b.Time.After(bs.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeDataIntegrity,
				"bar %d (%s): not after previous bar (%s)",
				i, b.Date(), bs.Bars[i-1].Date())
		}
	}
	return nil
}

func (bs *BarSet) Len() int {
	return len(bs.Bars)
}

// Prefix returns bars[0..i] inclusive. It shares the underlying array.
func (bs *BarSet) Prefix(i int) []Bar {
	return bs.Bars[:i+1]
}

func (bs *BarSet) Start() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[0].Time
}

func (bs *BarSet) End() time.Time {
	if len(bs.Bars) == 0 {
		return time.Time{}
	}
	return bs.Bars[len(bs.Bars)-1].Time
}

func (bs *BarSet) Closes() []float64 {
	return column(bs.Bars, func(b Bar) float64 { return b.Close })
}

func (bs *BarSet) Highs() []float64 {
	return column(bs.Bars, func(b Bar) float64 { return b.High })
}

func (bs *BarSet) Lows() []float64 {
	return column(bs.Bars, func(b Bar) float64 { return b.Low })
}

func (bs *BarSet) Volumes() []float64 {
	return column(bs.Bars, func(b Bar) float64 { return b.Volume })
}

// Closes extracts closing prices from an arbitrary bar slice.
func Closes(bars []Bar) []float64 {
	return column(bars, func(b Bar) float64 { return b.Close })
}

// Volumes extracts volumes from an arbitrary bar slice.
func Volumes(bars []Bar) []float64 {
	return column(bars, func(b Bar) float64 { return b.Volume })
}

func column(bars []Bar, f func(Bar) float64) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = f(b)
	}
	return out
}

// Iterator walks a BarSet one bar at a time.
type Iterator struct {
	bs  *BarSet
	idx int
}

func (bs *BarSet) Iterator() *Iterator {
	return &Iterator{
		bs:  bs,
		idx: -1,
	}
}

func (it *Iterator) Next() bool {
	it.idx++
	return it.idx < len(it.bs.Bars)
}

func (it *Iterator) Bar() Bar {
	return it.bs.Bars[it.idx]
}

func (it *Iterator) Index() int {
	return it.idx
}

// Last reports whether the current bar is the final one.
func (it *Iterator) Last() bool {
	return it.idx == len(it.bs.Bars)-1
}

func (it *Iterator) Time() time.Time {
	return it.bs.Bars[it.idx].Time
}
