package indicators

import (
	"fmt"

	"github.com/souloss/TradingLab/market"
)

// SimpleMA is a streaming Simple Moving Average indicator
type SimpleMA struct {
	period int
	source Source
	buf    []float64
	pos    int
	count  int
	sum    float64
}

// NewMA creates a new Simple Moving Average of closes with the given period.
// A non-positive period never becomes ready; use CheckPeriod to reject it.
func NewMA(period int) *SimpleMA {
	return NewMAOf(period, Close)
}

// NewMAOf creates a Simple Moving Average over an arbitrary bar field.
func NewMAOf(period int, src Source) *SimpleMA {
	return &SimpleMA{
		period: period,
		source: src,
		buf:    make([]float64, max(period, 1)),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.pos = 0
	m.count = 0
	m.sum = 0
}

func (m *SimpleMA) Update(b market.Bar) {
	m.Add(m.source(b))
}

// Add feeds a raw value.
func (m *SimpleMA) Add(v float64) {
	if m.period <= 0 {
		return
	}
	m.sum += v
	if m.count >= m.period {
		m.sum -= m.buf[m.pos]
	}
	m.buf[m.pos] = v
	m.pos = (m.pos + 1) % m.period
	m.count++
}

func (m *SimpleMA) Ready() bool {
	return m.period > 0 && m.count >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}

// ExponentialMA is a streaming Exponential Moving Average indicator
type ExponentialMA struct {
	period     int
	source     Source
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates a new Exponential Moving Average indicator with the given period
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		source:     Close,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	e.Add(e.source(b))
}

// Add feeds a raw value.
func (e *ExponentialMA) Add(v float64) {
	if e.period <= 0 {
		return
	}
	if e.count < e.period {
		// During warmup, accumulate sum for initial SMA
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
	} else {
		e.ema = (v-e.ema)*e.multiplier + e.ema
	}
}

func (e *ExponentialMA) Ready() bool {
	return e.period > 0 && e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
