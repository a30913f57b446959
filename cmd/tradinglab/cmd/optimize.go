package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/market"
	"github.com/souloss/TradingLab/stats"
	"github.com/souloss/TradingLab/strategies"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search the parameters of one strategy type",
	Long: `Optimize backtests every point of a strategy type's parameter grid over a
bar file and reports the point that maximizes the objective statistic.

The default grid of each type can be replaced per parameter with
--range name=start:stop:step (stop is exclusive).

Examples:
  tradinglab optimize -d data/AAPL.csv -t MA
  tradinglab optimize -d data/AAPL.csv -t MA -o sharpe_ratio --range shortPeriod=5:15:5 --range longPeriod=20:60:10`,
	RunE: runOptimize,
}

var (
	optDataPath   string
	optType       string
	optObjective  string
	optRanges     []string
	optTop        int
	optJSON       bool
	optNoProgress bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optDataPath, "data", "d", "", "bar file (.csv, .json, .parquet) (required)")
	optimizeCmd.Flags().StringVarP(&optType, "type", "t", "", "strategy type: MACD, MA, ATR, VOLUME (required)")
	optimizeCmd.Flags().StringVarP(&optObjective, "objective", "o", backtest.DefaultObjective,
		"statistic to maximize: "+strings.Join(stats.Metrics(), ", "))
	optimizeCmd.Flags().StringArrayVar(&optRanges, "range", nil, "parameter range name=start:stop:step (repeatable)")
	optimizeCmd.Flags().IntVar(&optTop, "top", 10, "number of trials to list")
	optimizeCmd.Flags().BoolVar(&optJSON, "json", false, "print the optimization as JSON")
	optimizeCmd.Flags().BoolVar(&optNoProgress, "no-progress", false, "hide the progress bar")

	optimizeCmd.MarkFlagRequired("data")
	optimizeCmd.MarkFlagRequired("type")
}

// parseRange parses "name=start:stop:step".
func parseRange(s string) (strategies.Range, error) {
	name, spec, ok := strings.Cut(s, "=")
	parts := strings.Split(spec, ":")
	if !ok || strings.TrimSpace(name) == "" || len(parts) != 3 {
		return strategies.Range{}, fmt.Errorf("range %q: want name=start:stop:step", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return strategies.Range{}, fmt.Errorf("range %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[1] <= vals[0] {
		return strategies.Range{}, fmt.Errorf("range %q: need start < stop and step > 0", s)
	}
	return strategies.Range{Param: strings.TrimSpace(name), Start: vals[0], Stop: vals[1], Step: vals[2]}, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	t, err := strategies.ParseType(optType)
	if err != nil {
		return err
	}

	opts := backtest.OptimizeOptions{
		Objective:    optObjective,
		BatchOptions: backtest.BatchOptions{Concurrency: cfg.Batch.Concurrency},
	}
	for _, s := range optRanges {
		r, err := parseRange(s)
		if err != nil {
			return err
		}
		opts.Ranges = append(opts.Ranges, r)
	}
	// a custom range replaces that parameter's default sweep only
	if len(opts.Ranges) > 0 {
		opts.Ranges, err = mergeRanges(t, opts.Ranges)
		if err != nil {
			return err
		}
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
	bs, err := market.LoadFile(optDataPath, "")
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	if !optNoProgress && !optJSON {
		grid, err := strategies.Grid(t, opts.Ranges)
		if err != nil {
			return err
		}
		bar := progressbar.Default(int64(len(grid)))
		bar.Describe(fmt.Sprintf("Optimizing %s on %s", t, bs.Symbol))
		opts.Progress = func(backtest.JobResult) { _ = bar.Add(1) }
	}

	ctx := cmd.Context()
	o, err := engine.Optimize(ctx, bs, t, opts)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()
	if err := j.RecordRun(ctx, o.Result); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	out := cmd.OutOrStdout()
	if optJSON {
		return writeJSON(out, o)
	}

	fmt.Fprintf(out, "Best %s: %s = %.4f\n\n", o.Best, o.Objective, o.BestValue)
	rows := make([][]string, 0, optTop)
	for i, tr := range rankTrials(o.Trials) {
		if i == optTop {
			break
		}
		value := "n/a"
		if v, err := tr.Value.Take(); err == nil {
			value = fmt.Sprintf("%.4f", v)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), tr.Config.String(), value, tr.Err})
	}
	renderTable(out, "Top trials", []string{"#", "Config", o.Objective, "Error"}, rows)
	renderStats(out, "Best run", &o.Result.Stats)
	return nil
}

// mergeRanges overlays custom on the default space of t.
func mergeRanges(t strategies.Type, custom []strategies.Range) ([]strategies.Range, error) {
	space, err := strategies.OptimizationSpace(t)
	if err != nil {
		return nil, err
	}
	out := make([]strategies.Range, len(space))
	copy(out, space)
	for _, c := range custom {
		found := false
		for i := range out {
			if strings.EqualFold(out[i].Param, c.Param) {
				out[i] = c
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%s has no parameter %q", t, c.Param)
		}
	}
	return out, nil
}

// rankTrials orders trials by value, best first; undefined values last.
func rankTrials(trials []backtest.Trial) []backtest.Trial {
	out := make([]backtest.Trial, len(trials))
	copy(out, trials)
	sort.SliceStable(out, func(a, b int) bool {
		va, errA := out[a].Value.Take()
		vb, errB := out[b].Value.Take()
		if errA != nil || errB != nil {
			return errA == nil && errB != nil
		}
		return va > vb
	})
	return out
}
