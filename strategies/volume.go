package strategies

import (
	"github.com/souloss/TradingLab/indicators"
	"github.com/souloss/TradingLab/market"
)

// The VOLUME rule buys on unusually quiet days and sells on spikes,
// relative to the rolling mean volume (which includes the current bar).
func volumeRule(prefix []market.Bar, p Params) Signal {
	mean, err := indicators.VolumeMean(prefix, p.LookbackPeriod)
	if err != nil {
		return Hold
	}
	t := len(prefix) - 1
	m, merr := mean.At(t).Take()
	if merr != nil {
		return Hold
	}
	return volumeSignal(prefix[t].Volume, m, p)
}

func volumeSignal(vol, mean float64, p Params) Signal {
	switch {
	case vol < mean*p.BuyVolumeMultiplier:
		return Buy
	case vol > mean*p.SellVolumeMultiplier:
		return Sell
	}
	return Hold
}

type volumeEvaluator struct {
	cfg  Config
	mean *indicators.SimpleMA
}

func newVolumeEvaluator(cfg Config) *volumeEvaluator {
	return &volumeEvaluator{
		cfg:  cfg,
		mean: indicators.NewMAOf(cfg.Params.LookbackPeriod, indicators.Volume),
	}
}

func (e *volumeEvaluator) Config() Config { return e.cfg }

func (e *volumeEvaluator) Warmup() int { return e.mean.Warmup() }

func (e *volumeEvaluator) Next(b market.Bar) Signal {
	e.mean.Update(b)
	if !e.mean.Ready() {
		return Hold
	}
	return volumeSignal(b.Volume, e.mean.Value(), e.cfg.Params)
}
