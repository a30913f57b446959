package strategies

import (
	"github.com/souloss/TradingLab/indicators"
	"github.com/souloss/TradingLab/market"
)

// The ATR rule is a volatility breakout: BUY when the close clears the
// moving average by more than multiplier ATRs, SELL when it falls below by
// the same distance.
func atrBandRule(prefix []market.Bar, p Params) Signal {
	atr, err := indicators.ATR(prefix, p.ATRPeriod)
	if err != nil {
		return Hold
	}
	sma, err := indicators.SMA(market.Closes(prefix), p.HighLowPeriod)
	if err != nil {
		return Hold
	}

	t := len(prefix) - 1
	a, aerr := atr.At(t).Take()
	m, merr := sma.At(t).Take()
	if aerr != nil || merr != nil {
		return Hold
	}
	return band(prefix[t].Close, m, a, p.ATRMultiplier)
}

func band(price, mid, atr, mult float64) Signal {
	width := atr * mult
	switch {
	case price > mid+width:
		return Buy
	case price < mid-width:
		return Sell
	}
	return Hold
}

type atrBandEvaluator struct {
	cfg Config
	atr *indicators.AverageTrueRange
	sma *indicators.SimpleMA
}

func newATRBandEvaluator(cfg Config) *atrBandEvaluator {
	return &atrBandEvaluator{
		cfg: cfg,
		atr: indicators.NewATR(cfg.Params.ATRPeriod),
		sma: indicators.NewMA(cfg.Params.HighLowPeriod),
	}
}

func (e *atrBandEvaluator) Config() Config { return e.cfg }

func (e *atrBandEvaluator) Warmup() int {
	return max(e.atr.Warmup(), e.sma.Warmup())
}

func (e *atrBandEvaluator) Next(b market.Bar) Signal {
	e.atr.Update(b)
	e.sma.Update(b)
	if !e.atr.Ready() || !e.sma.Ready() {
		return Hold
	}
	return band(b.Close, e.sma.Value(), e.atr.Value(), e.cfg.Params.ATRMultiplier)
}
