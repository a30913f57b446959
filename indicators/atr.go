package indicators

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
)

// TrueRange returns the true range of every bar. The first bar has no
// previous close, so its value is None.
func TrueRange(bars []market.Bar) Series {
	out := none(len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = optional.Some(trueRange(bars[i], bars[i-1]))
	}
	return out
}

// ATR calculates the Average True Range as a simple moving average of true
// ranges (not Wilder smoothing). out[i] is defined for i >= period.
func ATR(bars []market.Bar, period int) (Series, error) {
	if err := CheckPeriod("ATR", period); err != nil {
		return nil, err
	}

	out := none(len(bars))
	if len(bars) < 2 {
		return out, nil
	}

	trs := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs[i-1] = trueRange(bars[i], bars[i-1])
	}
	avg, err := SMA(trs, period)
	if err != nil {
		return nil, err
	}
	copy(out[1:], avg)
	return out, nil
}

// AverageTrueRange is a streaming Average True Range indicator
type AverageTrueRange struct {
	period      int
	avg         *SimpleMA
	prevBar     market.Bar
	hasPrevious bool
}

// NewATR creates a new Average True Range indicator with the given period
func NewATR(period int) *AverageTrueRange {
	return &AverageTrueRange{
		period: period,
		avg:    NewMA(period),
	}
}

func (a *AverageTrueRange) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *AverageTrueRange) Warmup() int {
	// Need period+1 bars because TR requires previous bar
	return a.period + 1
}

func (a *AverageTrueRange) Reset() {
	a.avg.Reset()
	a.hasPrevious = false
}

func (a *AverageTrueRange) Update(b market.Bar) {
	if a.hasPrevious {
		a.avg.Add(trueRange(b, a.prevBar))
	}
	a.prevBar = b
	a.hasPrevious = true
}

func (a *AverageTrueRange) Ready() bool {
	return a.avg.Ready()
}

func (a *AverageTrueRange) Value() float64 {
	return a.avg.Value()
}

// trueRange calculates the True Range for a bar given the previous bar
func trueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}
