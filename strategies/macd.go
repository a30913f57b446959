package strategies

import (
	"github.com/souloss/TradingLab/indicators"
	"github.com/souloss/TradingLab/market"
)

// The MACD rule trades zero-line crossings of the MACD line. No signal is
// emitted until the signal line is defined and the line has a value on the
// previous bar.
func macdRule(prefix []market.Bar, p Params) Signal {
	m, err := indicators.MACD(market.Closes(prefix), p.FastPeriod, p.SlowPeriod, p.SignalPeriod)
	if err != nil {
		return Hold
	}
	t := len(prefix) - 1
	if m.Signal.At(t).IsNone() {
		return Hold
	}
	prev, perr := m.Line.At(t - 1).Take()
	if perr != nil {
		return Hold
	}
	return cross(m.Line[t].Unwrap(), prev, true)
}

type macdEvaluator struct {
	cfg  Config
	macd *indicators.MACDLine

	lastLine     float64
	haveLastLine bool
}

func newMACDEvaluator(cfg Config) *macdEvaluator {
	return &macdEvaluator{
		cfg:  cfg,
		macd: indicators.NewMACD(cfg.Params.FastPeriod, cfg.Params.SlowPeriod, cfg.Params.SignalPeriod),
	}
}

func (e *macdEvaluator) Config() Config { return e.cfg }

func (e *macdEvaluator) Warmup() int { return e.macd.Warmup() }

func (e *macdEvaluator) Next(b market.Bar) Signal {
	e.macd.Update(b)
	if !e.macd.Ready() {
		return Hold
	}

	line := e.macd.Value()
	sig := Hold
	if e.macd.SignalReady() && e.haveLastLine {
		sig = cross(line, e.lastLine, true)
	}
	e.lastLine = line
	e.haveLastLine = true
	return sig
}
