package cmd

import (
	"fmt"
	"sort"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/strategies"
)

var batchCmd = &cobra.Command{
	Use:   "batch <bar-file>...",
	Short: "Backtest the same strategies over many symbols",
	Long: `Batch runs the configured strategies over every bar file concurrently and
prints a screening table: the return of each run and what the strategies
did on its last bar.

Examples:
  tradinglab batch data/*.csv
  tradinglab batch -s VOLUME --signal BUY data/*.parquet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchSpecs       []string
	batchCombiner    string
	batchConcurrency int
	batchSignal      string
	batchJSON        bool
	batchNoProgress  bool
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringArrayVarP(&batchSpecs, "strategy", "s", nil, "strategy spec (repeatable)")
	batchCmd.Flags().StringVar(&batchCombiner, "combiner", "", "vote combiner: majority, unanimous, any")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "n", 0, "concurrent runs (default from config)")
	batchCmd.Flags().StringVar(&batchSignal, "signal", "", "only list runs whose last-bar signal is BUY, SELL or HOLD")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the selections as JSON")
	batchCmd.Flags().BoolVar(&batchNoProgress, "no-progress", false, "hide the progress bar")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg, batchSpecs, batchCombiner, ""); err != nil {
		return err
	}
	signal, err := parseSignalFilter(batchSignal)
	if err != nil {
		return err
	}
	if batchConcurrency > 0 {
		cfg.Batch.Concurrency = batchConcurrency
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

	jobs := make([]backtest.Job, 0, len(args))
	for _, path := range args {
		bs, err := market.LoadFile(path, "")
		if err != nil {
			log.Warn("skipping bar file", zap.String("path", path), zap.Error(err))
			continue
		}
		jobs = append(jobs, backtest.Job{Bars: bs, Strategies: cfg.Strategies})
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no loadable bar files")
	}

	opts := backtest.BatchOptions{Concurrency: cfg.Batch.Concurrency}
	if !batchNoProgress && !batchJSON {
		bar := progressbar.Default(int64(len(jobs)))
		bar.Describe(fmt.Sprintf("Backtesting %d symbols", len(jobs)))
		opts.Progress = func(backtest.JobResult) { _ = bar.Add(1) }
	}

	ctx := cmd.Context()
	results, err := engine.RunBatch(ctx, jobs, opts)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	failed := 0
	for _, jr := range results {
		if jr.Err != nil {
			failed++
			continue
		}
		if err := j.RecordRun(ctx, jr.Result); err != nil {
			return fmt.Errorf("record run %s: %w", jr.Result.RunID, err)
		}
	}

	selections := filterSelections(backtest.Selections(results), signal)
	out := cmd.OutOrStdout()
	if batchJSON {
		return writeJSON(out, selections)
	}

	rows := make([][]string, 0, len(selections))
	for _, s := range selections {
		rows = append(rows, []string{
			s.Symbol, s.Signal.String(), pct(s.ReturnPct),
			fmt.Sprint(s.BuyCount), fmt.Sprint(s.SellCount), s.RunID,
		})
	}
	renderTable(out, "Selections", []string{"Symbol", "Signal", "Return", "Buys", "Sells", "Run"}, rows)
	if failed > 0 {
		fmt.Fprintf(out, "%d of %d runs failed; see the log\n", failed, len(results))
	}
	return nil
}

// filterSelections keeps the selections whose last-bar signal matches and
// orders them by return, undefined returns last.
func filterSelections(in []backtest.Selection, signal optional.Option[strategies.Signal]) []backtest.Selection {
	out := in[:0:0]
	for _, s := range in {
		if want, err := signal.Take(); err == nil && s.Signal != want {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, errA := out[a].ReturnPct.Take()
		rb, errB := out[b].ReturnPct.Take()
		if errA != nil || errB != nil {
			return errA == nil && errB != nil
		}
		return ra > rb
	})
	return out
}

func parseSignalFilter(s string) (optional.Option[strategies.Signal], error) {
	if s == "" {
		return optional.None[strategies.Signal](), nil
	}
	var sig strategies.Signal
	if err := sig.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	return optional.Some(sig), nil
}
