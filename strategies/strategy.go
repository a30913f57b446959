// Package strategies turns bar series into BUY/SELL/HOLD signals.
//
// Each strategy exists twice: a pure rule over a bar prefix (Generate) and
// an incremental Evaluator that keeps rolling indicator state. Both produce
// the same signal for every prefix; the backtest engine uses evaluators.
package strategies

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/pkg/errors"
)

// Type names a strategy family.
type Type string

const (
	TypeMACD   Type = "MACD"
	TypeMA     Type = "MA"
	TypeATR    Type = "ATR"
	TypeVolume Type = "VOLUME"
)

// Types lists every supported strategy type.
func Types() []Type {
	return []Type{TypeMACD, TypeMA, TypeATR, TypeVolume}
}

// ParseType accepts any letter case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeUnknownStrategy,
		"unknown strategy type %q (supported: MACD, MA, ATR, VOLUME)", s)
}

// UnmarshalText normalizes letter case so "ma" in a config file means MA.
func (t *Type) UnmarshalText(b []byte) error {
	*t = Type(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}

// Signal is the per-bar decision of a strategy.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signal) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	case "HOLD", "":
		*s = Hold
	default:
		return fmt.Errorf("unknown signal %q", string(b))
	}
	return nil
}

// Params holds the parameters of every strategy type; only the fields of
// the configured type are read.
type Params struct {
	FastPeriod   int `json:"fastPeriod,omitempty" yaml:"fastPeriod,omitempty"`
	SlowPeriod   int `json:"slowPeriod,omitempty" yaml:"slowPeriod,omitempty"`
	SignalPeriod int `json:"signalPeriod,omitempty" yaml:"signalPeriod,omitempty"`

	ShortPeriod int `json:"shortPeriod,omitempty" yaml:"shortPeriod,omitempty"`
	LongPeriod  int `json:"longPeriod,omitempty" yaml:"longPeriod,omitempty"`

	ATRPeriod     int     `json:"atrPeriod,omitempty" yaml:"atrPeriod,omitempty"`
	HighLowPeriod int     `json:"highLowPeriod,omitempty" yaml:"highLowPeriod,omitempty"`
	ATRMultiplier float64 `json:"atrMultiplier,omitempty" yaml:"atrMultiplier,omitempty"`

	LookbackPeriod       int     `json:"lookbackPeriod,omitempty" yaml:"lookbackPeriod,omitempty"`
	BuyVolumeMultiplier  float64 `json:"buyVolumeMultiplier,omitempty" yaml:"buyVolumeMultiplier,omitempty"`
	SellVolumeMultiplier float64 `json:"sellVolumeMultiplier,omitempty" yaml:"sellVolumeMultiplier,omitempty"`
}

// Config selects one strategy and its parameters.
type Config struct {
	Type   Type   `json:"type" yaml:"type"`
	Params Params `json:"parameters" yaml:"parameters"`
}

// DefaultConfig returns t with the default parameters.
func DefaultConfig(t Type) Config {
	cfg := Config{Type: t}
	switch t {
	case TypeMACD:
		cfg.Params = Params{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}
	case TypeMA:
		cfg.Params = Params{ShortPeriod: 5, LongPeriod: 20}
	case TypeATR:
		cfg.Params = Params{ATRPeriod: 14, HighLowPeriod: 20, ATRMultiplier: 1.5}
	case TypeVolume:
		cfg.Params = Params{LookbackPeriod: 20, BuyVolumeMultiplier: 0.3, SellVolumeMultiplier: 3.0}
	}
	return cfg
}

// WithDefaults fills unset (zero) parameters of the configured type with
// their defaults. Negative values are kept so Validate can reject them.
func (c Config) WithDefaults() Config {
	d := DefaultConfig(c.Type).Params
	p := &c.Params
	fillInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fillFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	switch c.Type {
	case TypeMACD:
		fillInt(&p.FastPeriod, d.FastPeriod)
		fillInt(&p.SlowPeriod, d.SlowPeriod)
		fillInt(&p.SignalPeriod, d.SignalPeriod)
	case TypeMA:
		fillInt(&p.ShortPeriod, d.ShortPeriod)
		fillInt(&p.LongPeriod, d.LongPeriod)
	case TypeATR:
		fillInt(&p.ATRPeriod, d.ATRPeriod)
		fillInt(&p.HighLowPeriod, d.HighLowPeriod)
		fillFloat(&p.ATRMultiplier, d.ATRMultiplier)
	case TypeVolume:
		fillInt(&p.LookbackPeriod, d.LookbackPeriod)
		fillFloat(&p.BuyVolumeMultiplier, d.BuyVolumeMultiplier)
		fillFloat(&p.SellVolumeMultiplier, d.SellVolumeMultiplier)
	}
	return c
}

// String renders the config as "MA(shortPeriod=5,longPeriod=20)".
func (c Config) String() string {
	var parts []string
	for _, f := range paramFields[c.Type] {
		parts = append(parts, fmt.Sprintf("%s=%s", f.name, formatParam(f.get(c.Params))))
	}
	return fmt.Sprintf("%s(%s)", c.Type, strings.Join(parts, ","))
}

// JSON returns the config encoded as JSON.
func (c Config) JSON() ([]byte, error) {
	return json.Marshal(c)
}

type macdParams struct {
	FastPeriod   int `json:"fastPeriod" validate:"gt=0"`
	SlowPeriod   int `json:"slowPeriod" validate:"gt=0"`
	SignalPeriod int `json:"signalPeriod" validate:"gt=0"`
}

type maParams struct {
	ShortPeriod int `json:"shortPeriod" validate:"gt=0"`
	LongPeriod  int `json:"longPeriod" validate:"gt=0"`
}

type atrParams struct {
	ATRPeriod     int     `json:"atrPeriod" validate:"gt=0"`
	HighLowPeriod int     `json:"highLowPeriod" validate:"gt=0"`
	ATRMultiplier float64 `json:"atrMultiplier" validate:"gt=0"`
}

type volumeParams struct {
	LookbackPeriod       int     `json:"lookbackPeriod" validate:"gt=0"`
	BuyVolumeMultiplier  float64 `json:"buyVolumeMultiplier" validate:"gt=0"`
	SellVolumeMultiplier float64 `json:"sellVolumeMultiplier" validate:"gt=0"`
}

// Validate rejects unknown types and non-positive parameters.
func (c Config) Validate() error {
	var target any
	p := c.Params
	switch c.Type {
	case TypeMACD:
		target = macdParams{p.FastPeriod, p.SlowPeriod, p.SignalPeriod}
	case TypeMA:
		target = maParams{p.ShortPeriod, p.LongPeriod}
	case TypeATR:
		target = atrParams{p.ATRPeriod, p.HighLowPeriod, p.ATRMultiplier}
	case TypeVolume:
		target = volumeParams{p.LookbackPeriod, p.BuyVolumeMultiplier, p.SellVolumeMultiplier}
	default:
		_, err := ParseType(string(c.Type))
		if err == nil {
			err = errors.Newf(errors.ErrCodeUnknownStrategy, "strategy type %q must be upper case", c.Type)
		}
		return err
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "validate strategy parameters", err)
	}
	fe := verrs[0]
	code := errors.ErrCodeInvalidPeriod
	if fe.Kind() == reflect.Float64 {
		code = errors.ErrCodeInvalidMultiplier
	}
	return errors.Newf(code, "%s %s must be positive, got %v", c.Type, fe.Field(), fe.Value())
}

// ValidateAll validates every config and requires at least one.
func ValidateAll(cfgs []Config) error {
	if len(cfgs) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "at least one strategy is required")
	}
	for i, c := range cfgs {
		if err := c.Validate(); err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "strategy %d", i)
		}
	}
	return nil
}

// Evaluator is the incremental form of a strategy. Next must be called once
// per bar, in order; it only ever sees bars up to and including b.
type Evaluator interface {
	Next(b market.Bar) Signal
	// Warmup is the number of bars before the first non-HOLD signal is
	// possible.
	Warmup() int
	Config() Config
}

// NewEvaluator validates cfg and builds its evaluator.
func NewEvaluator(cfg Config) (Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMACD:
		return newMACDEvaluator(cfg), nil
	case TypeMA:
		return newMACrossEvaluator(cfg), nil
	case TypeATR:
		return newATRBandEvaluator(cfg), nil
	default:
		return newVolumeEvaluator(cfg), nil
	}
}

// Generate evaluates cfg on the last bar of prefix, using only prefix.
// It recomputes every indicator from scratch and is meant for spot checks
// and tests; runs use NewEvaluator.
func Generate(prefix []market.Bar, cfg Config) (Signal, error) {
	if err := cfg.Validate(); err != nil {
		return Hold, err
	}
	if len(prefix) == 0 {
		return Hold, nil
	}
	switch cfg.Type {
	case TypeMACD:
		return macdRule(prefix, cfg.Params), nil
	case TypeMA:
		return maCrossRule(prefix, cfg.Params), nil
	case TypeATR:
		return atrBandRule(prefix, cfg.Params), nil
	default:
		return volumeRule(prefix, cfg.Params), nil
	}
}

// cross reports a transition of diff through zero: BUY when diff turns
// positive, SELL when it turns negative. An undefined previous value counts
// as neither above nor below; zero counts as not crossed.
func cross(diff, prev float64, prevOK bool) Signal {
	switch {
	case diff > 0 && !(prevOK && prev > 0):
		return Buy
	case diff < 0 && !(prevOK && prev < 0):
		return Sell
	}
	return Hold
}
