package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/souloss/TradingLab/config"
	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest strategies over one bar file",
	Long: `Backtest replays a bar file through the configured strategies, combining
their votes on each bar, and prints the performance statistics.

Strategies come from the config file unless --strategy is given. A strategy
spec is a type with optional parameter overrides.

Examples:
  tradinglab backtest -d data/600000.SH.csv
  tradinglab backtest -d data/AAPL.parquet -s MA:shortPeriod=10,longPeriod=30 -s VOLUME
  tradinglab backtest -d data/AAPL.csv --combiner any --finalize close_at_end --json`,
	RunE: runBacktest,
}

var (
	btDataPath  string
	btSymbol    string
	btSpecs     []string
	btCombiner  string
	btFinalize  string
	btJSON      bool
	btNoJournal bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataPath, "data", "d", "", "bar file (.csv, .json, .parquet) (required)")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "", "symbol (default is the file's base name)")
	backtestCmd.Flags().StringArrayVarP(&btSpecs, "strategy", "s", nil, "strategy spec, e.g. MACD or MA:shortPeriod=10 (repeatable)")
	backtestCmd.Flags().StringVar(&btCombiner, "combiner", "", "vote combiner: majority, unanimous, any")
	backtestCmd.Flags().StringVar(&btFinalize, "finalize", "", "open position at the end: mark_to_market, close_at_end")
	backtestCmd.Flags().BoolVar(&btJSON, "json", false, "print the full result as JSON")
	backtestCmd.Flags().BoolVar(&btNoJournal, "no-journal", false, "do not record the run")

	backtestCmd.MarkFlagRequired("data")
}

// applyRunFlags overlays the strategy and combination flags on cfg.
func applyRunFlags(cfg *config.Config, specs []string, combiner, finalize string) error {
	if len(specs) > 0 {
		cfg.Strategies = cfg.Strategies[:0:0]
		for _, spec := range specs {
			c, err := strategies.ParseSpec(spec)
			if err != nil {
				return err
			}
			cfg.Strategies = append(cfg.Strategies, c)
		}
	}
	if combiner != "" {
		cfg.Combiner = combiner
	}
	if finalize != "" {
		cfg.Finalize = finalize
	}
	return cfg.Validate()
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg, btSpecs, btCombiner, btFinalize); err != nil {
		return err
	}
	if btNoJournal {
		cfg.Journal = config.JournalConfig{Type: "none"}
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	bs, err := market.LoadFile(btDataPath, btSymbol)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	ctx := cmd.Context()
	res, err := engine.Run(ctx, bs, cfg.Strategies)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()
	if err := j.RecordRun(ctx, res); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	log.Debug("run recorded", zap.String("run_id", res.RunID), zap.String("journal", cfg.Journal.Type))

	out := cmd.OutOrStdout()
	if btJSON {
		return writeJSON(out, res)
	}

	renderStats(out, fmt.Sprintf("%s  %s  (%s)", res.Symbol, res.RunID, res.Combiner), &res.Stats)
	sel := res.Selection()
	fmt.Fprintf(out, "Last bar: %s  signal %s  buys %d  sells %d\n",
		res.Stats.End.Format("2006-01-02"), sel.Signal, sel.BuyCount, sel.SellCount)
	return nil
}
