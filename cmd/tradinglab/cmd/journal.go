package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/souloss/TradingLab/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded runs",
	Long: `Query and manage runs recorded in the SQLite journal.

Subcommands:
  list    - List runs, newest first
  show    - Show the statistics of a run, or its Org-mode report
  delete  - Delete a run with its trades and equity curve
  day     - List trades of every run closed on a specific day

Examples:
  tradinglab journal list --symbol 600000.SH
  tradinglab journal show 01HRZ8ABCDEFGH12345678 --org
  tradinglab journal day 2024-01-15`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath   string
	journalFilter   journal.Filter
	journalShowOrg  bool
	journalShowJSON bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDeleteCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "path to SQLite journal DB (default from config)")

	journalListCmd.Flags().StringVar(&journalFilter.Symbol, "symbol", "", "only runs of this symbol")
	journalListCmd.Flags().StringVarP(&journalFilter.Keyword, "keyword", "k", "", "substring of the symbol or name")
	journalListCmd.Flags().IntVar(&journalFilter.Page, "page", 1, "page number")
	journalListCmd.Flags().IntVar(&journalFilter.PageSize, "page-size", journal.DefaultPageSize, "runs per page")

	journalShowCmd.Flags().BoolVar(&journalShowOrg, "org", false, "print the Org-mode report")
	journalShowCmd.Flags().BoolVar(&journalShowJSON, "json", false, "print the run as JSON")
}

func openSQLite() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal database: set --db or journal.db_path")
	}
	return journal.NewSQLite(path)
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	page, err := j.ListRuns(cmd.Context(), journalFilter)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	rows := make([][]string, 0, len(page.Items))
	for _, r := range page.Items {
		rows = append(rows, []string{
			r.RunID, r.Symbol, r.Created.Local().Format("2006-01-02 15:04"),
			fmt.Sprint(r.NTrades), pct(r.ReturnPct), pct(r.MaxDrawdownPct),
		})
	}
	out := cmd.OutOrStdout()
	renderTable(out, "", []string{"Run", "Symbol", "Created", "Trades", "Return", "Max DD"}, rows)
	fmt.Fprintf(out, "page %d, %d of %d runs\n", page.Page, len(page.Items), page.Total)
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	res, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case journalShowJSON:
		return writeJSON(out, res)
	case journalShowOrg:
		report, err := journal.OrgReport(res)
		if err != nil {
			return err
		}
		fmt.Fprint(out, report)
		return nil
	}
	renderStats(out, fmt.Sprintf("%s  %s", res.Symbol, res.RunID), &res.Stats)
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	if err := j.DeleteRun(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s\n", args[0])
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	trades, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(trades, ""))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
