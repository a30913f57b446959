package journal

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/moznion/go-optional"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/pkg/errors"
)

// SQLite stores runs, their trades and their equity curves.
type SQLite struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "open sqlite", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, "apply schema", err)
	}

	return &SQLite{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// RecordRun writes the run, its trades and its equity curve in one
// transaction. Recording the same run ID twice fails.
func (j *SQLite) RecordRun(ctx context.Context, res *backtest.Result) error {
	if res == nil {
		return errors.New(errors.ErrCodeStorage, "nil result")
	}

	cfgs, err := json.Marshal(res.Strategies)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "encode strategies", err)
	}
	st := res.Stats
	st.EquityCurve, st.Trades = nil, nil
	statsJSON, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "encode stats", err)
	}
	events, err := json.Marshal(res.Events)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "encode events", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertRun := j.sq.
		Insert("runs").
		Columns(
			"run_id", "symbol", "name", "created", "strategies", "combiner", "finalize",
			"start_time", "end_time", "n_trades", "equity_final",
			"return_pct", "max_drawdown_pct", "sharpe_ratio", "stats", "events",
		).
		Values(
			res.RunID, res.Symbol, res.Name, res.Created.UTC(), string(cfgs), res.Combiner, string(res.Finalize),
			res.Stats.Start.UTC(), res.Stats.End.UTC(), res.Stats.NTrades, res.Stats.EquityFinal,
			nullFloat(res.Stats.ReturnPct), nullFloat(res.Stats.MaxDrawdownPct), nullFloat(res.Stats.SharpeRatio),
			string(statsJSON), string(events),
		)
	if err := exec(ctx, tx, insertRun); err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "insert run %s", res.RunID)
	}

	// chunked to stay under sqlite's bound-variable limit
	const chunk = 500
	for start := 0; start < len(res.Trades); start += chunk {
		insertTrades := j.sq.
			Insert("trades").
			Columns(
				"run_id", "trade_id", "size", "entry_bar", "exit_bar", "entry_time", "exit_time",
				"entry_price", "exit_price", "stop_loss", "take_profit", "pnl", "commission",
				"return_pct", "duration_seconds", "tag", "synthetic",
			)
		for _, t := range res.Trades[start:min(start+chunk, len(res.Trades))] {
			insertTrades = insertTrades.Values(
				res.RunID, t.ID, t.Size, t.EntryBar, t.ExitBar, t.EntryTime.UTC(), t.ExitTime.UTC(),
				t.EntryPrice, t.ExitPrice, nullFloat(t.StopLoss), nullFloat(t.TakeProfit), t.PnL, t.Commission,
				t.ReturnPct, t.DurationSeconds, nullString(t.Tag), t.Synthetic,
			)
		}
		if err := exec(ctx, tx, insertTrades); err != nil {
			return errors.Wrapf(errors.ErrCodeStorage, err, "insert trades of run %s", res.RunID)
		}
	}

	for start := 0; start < len(res.EquityCurve); start += chunk {
		insertEquity := j.sq.
			Insert("equity").
			Columns("run_id", "bar", "time", "close", "equity", "cash", "shares", "drawdown_pct", "drawdown_duration_seconds")
		for _, p := range res.EquityCurve[start:min(start+chunk, len(res.EquityCurve))] {
			insertEquity = insertEquity.Values(
				res.RunID, p.Bar, p.Time.UTC(), p.Close, p.Equity, p.Cash, p.Shares, p.DrawdownPct, nullInt(p.DrawdownDuration),
			)
		}
		if err := exec(ctx, tx, insertEquity); err != nil {
			return errors.Wrapf(errors.ErrCodeStorage, err, "insert equity of run %s", res.RunID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "commit", err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func exec(ctx context.Context, tx *sql.Tx, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func nullFloat(o optional.Option[float64]) sql.NullFloat64 {
	v, err := o.Take()
	return sql.NullFloat64{Float64: v, Valid: err == nil}
}

func nullInt(o optional.Option[int64]) sql.NullInt64 {
	v, err := o.Take()
	return sql.NullInt64{Int64: v, Valid: err == nil}
}

func nullString(o optional.Option[string]) sql.NullString {
	v, err := o.Take()
	return sql.NullString{String: v, Valid: err == nil}
}

func floatOption(n sql.NullFloat64) optional.Option[float64] {
	if !n.Valid {
		return optional.None[float64]()
	}
	return optional.Some(n.Float64)
}

func intOption(n sql.NullInt64) optional.Option[int64] {
	if !n.Valid {
		return optional.None[int64]()
	}
	return optional.Some(n.Int64)
}

func stringOption(n sql.NullString) optional.Option[string] {
	if !n.Valid {
		return optional.None[string]()
	}
	return optional.Some(n.String)
}

var _ Journal = (*SQLite)(nil)
