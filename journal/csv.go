package journal

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/pkg/errors"
)

// CSVJournal writes each run into its own directory under dir:
// trades.csv, equity.csv and report.org.
type CSVJournal struct {
	dir string
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorage, err, "create journal dir %s", dir)
	}
	return &CSVJournal{dir: dir}, nil
}

func (j *CSVJournal) RecordRun(ctx context.Context, res *backtest.Result) error {
	if res == nil {
		return errors.New(errors.ErrCodeStorage, "nil result")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(j.dir, res.RunID)
	if err := WriteCSV(dir, res); err != nil {
		return err
	}
	return WriteOrg(filepath.Join(dir, "report.org"), res)
}

func (j *CSVJournal) Close() error { return nil }

var (
	tradeHeader  = []string{"trade_id", "size", "entry_bar", "exit_bar", "entry_time", "exit_time", "entry_price", "exit_price", "sl", "tp", "pnl", "commission", "return_pct", "duration_seconds", "tag", "synthetic"}
	equityHeader = []string{"bar", "time", "close", "equity", "cash", "shares", "drawdown_pct", "drawdown_duration_seconds"}
)

// WriteCSV writes trades.csv and equity.csv for res into dir. Undefined
// values are written as empty cells.
func WriteCSV(dir string, res *backtest.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "create %s", dir)
	}

	trades := [][]string{tradeHeader}
	for _, t := range res.Trades {
		trades = append(trades, []string{
			t.ID,
			strconv.FormatInt(t.Size, 10),
			strconv.Itoa(t.EntryBar),
			strconv.Itoa(t.ExitBar),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			f(t.EntryPrice),
			f(t.ExitPrice),
			optF(t.StopLoss),
			optF(t.TakeProfit),
			f(t.PnL),
			f(t.Commission),
			f(t.ReturnPct),
			strconv.FormatInt(t.DurationSeconds, 10),
			t.Tag.Unwrap(),
			strconv.FormatBool(t.Synthetic),
		})
	}
	if err := writeCSVFile(filepath.Join(dir, "trades.csv"), trades); err != nil {
		return err
	}

	equity := [][]string{equityHeader}
	for _, p := range res.EquityCurve {
		dd := ""
		if v, err := p.DrawdownDuration.Take(); err == nil {
			dd = strconv.FormatInt(v, 10)
		}
		equity = append(equity, []string{
			strconv.Itoa(p.Bar),
			p.Time.Format(time.RFC3339),
			f(p.Close),
			f(p.Equity),
			f(p.Cash),
			strconv.FormatInt(p.Shares, 10),
			f(p.DrawdownPct),
			dd,
		})
	}
	return writeCSVFile(filepath.Join(dir, "equity.csv"), equity)
}

func writeCSVFile(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "create %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "write %s", path)
	}
	return file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func optF(o optional.Option[float64]) string {
	v, err := o.Take()
	if err != nil {
		return ""
	}
	return f(v)
}

var _ Journal = (*CSVJournal)(nil)
