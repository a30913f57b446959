package indicators

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/market"
)

// MACDResult holds the three aligned MACD series.
type MACDResult struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD computes line = EMA(fast) - EMA(slow), the signal line as an EMA of
// the line (seeded from its first defined values) and their difference.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	for _, p := range []struct {
		name   string
		period int
	}{{"MACD fast", fast}, {"MACD slow", slow}, {"MACD signal", signal}} {
		if err := CheckPeriod(p.name, p.period); err != nil {
			return MACDResult{}, err
		}
	}

	fastEMA, _ := EMA(closes, fast)
	slowEMA, _ := EMA(closes, slow)

	res := MACDResult{
		Line:      none(len(closes)),
		Signal:    none(len(closes)),
		Histogram: none(len(closes)),
	}

	first := -1
	line := make([]float64, len(closes))
	for i := range closes {
		f, ferr := fastEMA[i].Take()
		s, serr := slowEMA[i].Take()
		if ferr != nil || serr != nil {
			continue
		}
		line[i] = f - s
		res.Line[i] = optional.Some(line[i])
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return res, nil
	}

	emaFrom(line, first, signal, res.Signal)
	for i := first; i < len(closes); i++ {
		if sig, err := res.Signal[i].Take(); err == nil {
			res.Histogram[i] = optional.Some(line[i] - sig)
		}
	}
	return res, nil
}

// MACDLine is a streaming MACD indicator. Value is the MACD line; the
// signal line is available through SignalValue once SignalReady.
type MACDLine struct {
	fastPeriod, slowPeriod, signalPeriod int

	fast   *ExponentialMA
	slow   *ExponentialMA
	signal *ExponentialMA
}

// NewMACD creates a streaming MACD with the given periods.
func NewMACD(fast, slow, signal int) *MACDLine {
	return &MACDLine{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
		fast:         NewEMA(fast),
		slow:         NewEMA(slow),
		signal:       NewEMA(signal),
	}
}

func (m *MACDLine) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Warmup counts the bars until the signal line is defined.
func (m *MACDLine) Warmup() int {
	return max(m.fastPeriod, m.slowPeriod) + m.signalPeriod - 1
}

func (m *MACDLine) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACDLine) Update(b market.Bar) {
	m.fast.Update(b)
	m.slow.Update(b)
	if m.Ready() {
		m.signal.Add(m.Value())
	}
}

// Ready reports whether the MACD line is defined.
func (m *MACDLine) Ready() bool {
	return m.fast.Ready() && m.slow.Ready()
}

func (m *MACDLine) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

func (m *MACDLine) SignalReady() bool {
	return m.signal.Ready()
}

func (m *MACDLine) SignalValue() float64 {
	return m.signal.Value()
}

func (m *MACDLine) Histogram() float64 {
	if !m.SignalReady() {
		return 0
	}
	return m.Value() - m.SignalValue()
}
