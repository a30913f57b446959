package strategies

import (
	"math"

	"github.com/souloss/TradingLab/pkg/errors"
)

// Range is a half-open parameter sweep [Start, Stop) with a fixed Step.
type Range struct {
	Param string  `json:"param"`
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Step  float64 `json:"step"`
}

// Values enumerates the range, rounding away accumulated float error.
func (r Range) Values() []float64 {
	if r.Step <= 0 {
		return nil
	}
	var out []float64
	for k := 0; ; k++ {
		v := math.Round((r.Start+float64(k)*r.Step)*1e6) / 1e6
		if v >= r.Stop-1e-9 {
			break
		}
		out = append(out, v)
	}
	return out
}

// OptimizationSpace returns the default parameter grid of t.
func OptimizationSpace(t Type) ([]Range, error) {
	switch t {
	case TypeMACD:
		return []Range{
			{"fastPeriod", 5, 30, 5},
			{"slowPeriod", 20, 60, 5},
			{"signalPeriod", 5, 15, 5},
		}, nil
	case TypeMA:
		return []Range{
			{"shortPeriod", 5, 40, 5},
			{"longPeriod", 20, 120, 10},
		}, nil
	case TypeATR:
		return []Range{
			{"highLowPeriod", 10, 60, 3},
			{"atrPeriod", 5, 30, 5},
			{"atrMultiplier", 0.3, 6.0, 0.6},
		}, nil
	case TypeVolume:
		return []Range{
			{"lookbackPeriod", 20, 120, 5},
			{"sellVolumeMultiplier", 1.5, 6.0, 0.5},
			{"buyVolumeMultiplier", 0.2, 0.9, 0.1},
		}, nil
	}
	return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "no optimization space for %q", t)
}

// Constraint returns the predicate a grid point of type t must satisfy to
// be worth running.
func Constraint(t Type) func(Params) bool {
	switch t {
	case TypeMACD:
		return func(p Params) bool {
			return p.FastPeriod < p.SlowPeriod && p.SignalPeriod < p.FastPeriod
		}
	case TypeMA:
		return func(p Params) bool { return p.ShortPeriod < p.LongPeriod }
	case TypeATR:
		return func(p Params) bool { return p.ATRPeriod < p.HighLowPeriod }
	case TypeVolume:
		return func(p Params) bool { return p.SellVolumeMultiplier > p.BuyVolumeMultiplier }
	}
	return func(Params) bool { return true }
}

// Grid expands ranges into every config of type t that satisfies the
// constraint. A nil ranges argument uses OptimizationSpace(t).
func Grid(t Type, ranges []Range) ([]Config, error) {
	if ranges == nil {
		var err error
		if ranges, err = OptimizationSpace(t); err != nil {
			return nil, err
		}
	}

	keep := Constraint(t)
	base := DefaultConfig(t)
	var out []Config

	var walk func(i int, cfg Config) error
	walk = func(i int, cfg Config) error {
		if i == len(ranges) {
			if keep(cfg.Params) {
				out = append(out, cfg)
			}
			return nil
		}
		for _, v := range ranges[i].Values() {
			next := cfg
			if err := next.Set(ranges[i].Param, v); err != nil {
				return err
			}
			if err := walk(i+1, next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, base); err != nil {
		return nil, err
	}
	return out, nil
}
