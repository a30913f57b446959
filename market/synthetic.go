package market

import "time"

// FromCloses builds a daily series from closing prices. Each bar opens at
// the previous close, so High/Low bracket both. Volume is constant.
func FromCloses(symbol string, start time.Time, closes []float64, volume float64) *BarSet {
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   max(open, c),
			Low:    min(open, c),
			Close:  c,
			Volume: volume,
		}
	}
	return &BarSet{Symbol: symbol, Bars: bars}
}
