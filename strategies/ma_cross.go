package strategies

import (
	"github.com/souloss/TradingLab/indicators"
	"github.com/souloss/TradingLab/market"
)

// The MA rule trades golden and death crosses of a short and a long simple
// moving average of closes.
func maCrossRule(prefix []market.Bar, p Params) Signal {
	closes := market.Closes(prefix)
	short, err := indicators.SMA(closes, p.ShortPeriod)
	if err != nil {
		return Hold
	}
	long, err := indicators.SMA(closes, p.LongPeriod)
	if err != nil {
		return Hold
	}

	t := len(prefix) - 1
	s, serr := short.At(t).Take()
	l, lerr := long.At(t).Take()
	if serr != nil || lerr != nil {
		return Hold
	}
	ps, pserr := short.At(t - 1).Take()
	pl, plerr := long.At(t - 1).Take()
	return cross(s-l, ps-pl, pserr == nil && plerr == nil)
}

type maCrossEvaluator struct {
	cfg   Config
	short *indicators.SimpleMA
	long  *indicators.SimpleMA

	lastDiff     float64
	haveLastDiff bool
}

func newMACrossEvaluator(cfg Config) *maCrossEvaluator {
	return &maCrossEvaluator{
		cfg:   cfg,
		short: indicators.NewMA(cfg.Params.ShortPeriod),
		long:  indicators.NewMA(cfg.Params.LongPeriod),
	}
}

func (e *maCrossEvaluator) Config() Config { return e.cfg }

func (e *maCrossEvaluator) Warmup() int {
	return max(e.short.Warmup(), e.long.Warmup())
}

func (e *maCrossEvaluator) Next(b market.Bar) Signal {
	e.short.Update(b)
	e.long.Update(b)
	if !e.short.Ready() || !e.long.Ready() {
		return Hold
	}

	diff := e.short.Value() - e.long.Value()
	sig := cross(diff, e.lastDiff, e.haveLastDiff)
	e.lastDiff = diff
	e.haveLastDiff = true
	return sig
}
