package cmd

import (
	"github.com/spf13/cobra"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/config"
	"github.com/souloss/TradingLab/journal"
	"github.com/souloss/TradingLab/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tradinglab",
	Short: "Backtest and screen daily-bar trading strategies",
	Long: `TradingLab replays daily OHLCV bars through MACD, MA-cross, ATR-band and
volume strategies, simulates long-only lot-based fills and reports the
performance statistics of each run.

It provides tools for:
  - Backtesting one or more strategies with vote combination
  - Batch runs across many symbols for screening
  - Grid-search optimization of strategy parameters
  - A SQLite journal of past runs

Bar files may be CSV, JSON or Parquet.`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file, YAML or JSON (defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadConfig reads --config, or the defaults when it is not set.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
}

func newEngine(cfg *config.Config, log *logger.Logger) (*backtest.Engine, error) {
	opts, err := cfg.EngineOptions(log)
	if err != nil {
		return nil, err
	}
	return backtest.NewEngine(opts)
}

// openJournal returns the journal configured by cfg; nothing is recorded
// for type none.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.Dir)
	default:
		return journal.Nop{}, nil
	}
}
