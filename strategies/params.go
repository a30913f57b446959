package strategies

import (
	"math"
	"strconv"
	"strings"

	"github.com/souloss/TradingLab/pkg/errors"
)

type paramField struct {
	name    string
	integer bool
	get     func(Params) float64
	set     func(*Params, float64)
}

func intField(name string, ptr func(*Params) *int) paramField {
	return paramField{
		name:    name,
		integer: true,
		get:     func(p Params) float64 { return float64(*ptr(&p)) },
		set:     func(p *Params, v float64) { *ptr(p) = int(v) },
	}
}

func floatField(name string, ptr func(*Params) *float64) paramField {
	return paramField{
		name: name,
		get:  func(p Params) float64 { return *ptr(&p) },
		set:  func(p *Params, v float64) { *ptr(p) = v },
	}
}

// paramFields lists each type's parameters in display order.
var paramFields = map[Type][]paramField{
	TypeMACD: {
		intField("fastPeriod", func(p *Params) *int { return &p.FastPeriod }),
		intField("slowPeriod", func(p *Params) *int { return &p.SlowPeriod }),
		intField("signalPeriod", func(p *Params) *int { return &p.SignalPeriod }),
	},
	TypeMA: {
		intField("shortPeriod", func(p *Params) *int { return &p.ShortPeriod }),
		intField("longPeriod", func(p *Params) *int { return &p.LongPeriod }),
	},
	TypeATR: {
		intField("atrPeriod", func(p *Params) *int { return &p.ATRPeriod }),
		intField("highLowPeriod", func(p *Params) *int { return &p.HighLowPeriod }),
		floatField("atrMultiplier", func(p *Params) *float64 { return &p.ATRMultiplier }),
	},
	TypeVolume: {
		intField("lookbackPeriod", func(p *Params) *int { return &p.LookbackPeriod }),
		floatField("buyVolumeMultiplier", func(p *Params) *float64 { return &p.BuyVolumeMultiplier }),
		floatField("sellVolumeMultiplier", func(p *Params) *float64 { return &p.SellVolumeMultiplier }),
	},
}

func lookupField(t Type, name string) (paramField, bool) {
	for _, f := range paramFields[t] {
		if strings.EqualFold(f.name, name) {
			return f, true
		}
	}
	return paramField{}, false
}

// Set assigns the named parameter of c's type.
func (c *Config) Set(name string, v float64) error {
	f, ok := lookupField(c.Type, name)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s has no parameter %q", c.Type, name)
	}
	if f.integer && v != math.Trunc(v) {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s %s must be an integer, got %v", c.Type, f.name, v)
	}
	f.set(&c.Params, v)
	return nil
}

// Values returns c's parameters keyed by name.
func (c Config) Values() map[string]float64 {
	out := make(map[string]float64, len(paramFields[c.Type]))
	for _, f := range paramFields[c.Type] {
		out[f.name] = f.get(c.Params)
	}
	return out
}

// ParseSpec parses "MA" or "MA:shortPeriod=10,longPeriod=30". Parameters
// not mentioned keep their defaults.
func ParseSpec(spec string) (Config, error) {
	typ, rest, _ := strings.Cut(spec, ":")
	t, err := ParseType(typ)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig(t)

	for _, kv := range strings.Split(rest, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return Config{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "expected name=value, got %q", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "parameter %s", name)
		}
		if err := cfg.Set(strings.TrimSpace(name), v); err != nil {
			return Config{}, err
		}
	}
	return cfg, cfg.Validate()
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
