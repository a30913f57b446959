// Package config loads the run configuration shared by the CLI commands.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/logger"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/sim"
	"github.com/souloss/TradingLab/strategies"
)

// Config represents the complete run configuration
type Config struct {
	Account      AccountConfig       `json:"account" yaml:"account"`
	Strategies   []strategies.Config `json:"strategies" yaml:"strategies" validate:"min=1"`
	Combiner     string              `json:"combiner" yaml:"combiner" validate:"omitempty,oneof=majority majority-vote unanimous all any"`
	Finalize     string              `json:"finalize" yaml:"finalize" validate:"omitempty,oneof=mark_to_market close_at_end"`
	RiskFreeRate float64             `json:"risk_free_rate" yaml:"risk_free_rate" validate:"gte=0,lt=1"`
	Batch        BatchConfig         `json:"batch" yaml:"batch"`
	Journal      JournalConfig       `json:"journal" yaml:"journal"`
	Log          LogConfig           `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash" validate:"gt=0"`
	LotSize        int64   `json:"lot_size" yaml:"lot_size" validate:"gt=0"`
	Commission     string  `json:"commission" yaml:"commission" validate:"omitempty,oneof=percent min_percent zero"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate" validate:"gte=0,lt=1"`
	MinCommission  float64 `json:"min_commission,omitempty" yaml:"min_commission,omitempty" validate:"gte=0"`
}

// BatchConfig bounds concurrent runs of batch and optimize.
type BatchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=0"`
}

// JournalConfig contains journaling parameters. An empty Type means none.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type" validate:"omitempty,oneof=sqlite csv none"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" validate:"required_if=Type sqlite"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty" validate:"required_if=Type csv"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `json:"development" yaml:"development"`
}

// LoadFromFile loads configuration from a file. YAML is tried first, then
// JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "read config file %s", path)
	}

	cfg := &Config{}

	// tab-indented JSON is not valid YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = &Config{}
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parse config (tried YAML and JSON)", jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "marshal config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "write config file %s", path)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}

// Validate checks the struct tags, then the rules that span fields:
// the strategy parameters and the commission model.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"%s failed %q (value %v)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value())
		}
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "validate config", err)
	}

	if err := strategies.ValidateAll(c.WithDefaults().Strategies); err != nil {
		return err
	}
	if c.Account.Commission == sim.CommissionMinPercent && c.Account.MinCommission == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"account.min_commission is required for the min_percent commission model")
	}
	if c.Account.Commission == sim.CommissionZero && c.Account.CommissionRate != 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"account.commission_rate must be 0 for the zero commission model")
	}
	return nil
}

// WithDefaults returns a copy whose strategies carry their default
// parameters where none were given.
func (c *Config) WithDefaults() *Config {
	out := *c
	out.Strategies = make([]strategies.Config, len(c.Strategies))
	for i, s := range c.Strategies {
		out.Strategies[i] = s.WithDefaults()
	}
	return &out
}

// EngineOptions builds backtest options from the account and run
// settings. log may be nil.
func (c *Config) EngineOptions(log *logger.Logger) (backtest.Options, error) {
	commission, err := sim.NewCommission(c.Account.Commission, c.Account.CommissionRate, c.Account.MinCommission)
	if err != nil {
		return backtest.Options{}, err
	}
	combiner, err := strategies.CombinerByName(c.Combiner)
	if err != nil {
		return backtest.Options{}, err
	}
	finalize, err := sim.ParseFinalizePolicy(c.Finalize)
	if err != nil {
		return backtest.Options{}, err
	}
	return backtest.Options{
		InitialCash:  c.Account.InitialCash,
		LotSize:      c.Account.LotSize,
		Commission:   commission,
		Combiner:     combiner,
		Finalize:     finalize,
		RiskFreeRate: c.RiskFreeRate,
		Logger:       log,
	}, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	ledger := sim.DefaultOptions()
	return &Config{
		Account: AccountConfig{
			InitialCash:    ledger.InitialCash,
			LotSize:        ledger.LotSize,
			Commission:     sim.CommissionPercent,
			CommissionRate: 0.0003,
		},
		Strategies: []strategies.Config{
			strategies.DefaultConfig(strategies.TypeMACD),
			strategies.DefaultConfig(strategies.TypeMA),
		},
		Combiner: strategies.MajorityVote{}.Name(),
		Finalize: string(sim.MarkToMarket),
		Batch: BatchConfig{
			Concurrency: backtest.DefaultConcurrency,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./tradinglab.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
