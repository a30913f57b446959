package indicators

import (
	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
)

// SMA calculates the Simple Moving Average of values using a running sum.
// out[i] is defined for i >= period-1.
func SMA(values []float64, period int) (Series, error) {
	if err := CheckPeriod("SMA", period); err != nil {
		return nil, err
	}

	out := none(len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = optional.Some(sum / float64(period))
		}
	}
	return out, nil
}

// EMA calculates the Exponential Moving Average of values. The first
// defined value (at period-1) is the SMA of the first period values; later
// values follow ema = (v-ema)*α + ema with α = 2/(period+1).
func EMA(values []float64, period int) (Series, error) {
	if err := CheckPeriod("EMA", period); err != nil {
		return nil, err
	}

	out := none(len(values))
	emaFrom(values, 0, period, out)
	return out, nil
}

// emaFrom runs the EMA recurrence over values[start:], writing into out at
// the same indices.
func emaFrom(values []float64, start, period int, out Series) {
	multiplier := 2.0 / float64(period+1)

	var (
		ema  float64
		sum  float64
		seen int
	)
	for i := start; i < len(values); i++ {
		v := values[i]
		if seen < period {
			// During warmup, accumulate sum for initial SMA
			sum += v
			seen++
			if seen < period {
				continue
			}
			ema = sum / float64(period)
		} else {
			ema = (v-ema)*multiplier + ema
		}
		out[i] = optional.Some(ema)
	}
}

// VolumeMean is the rolling mean of bar volume over period bars, including
// the current bar.
func VolumeMean(bars []market.Bar, period int) (Series, error) {
	return SMA(market.Volumes(bars), period)
}
