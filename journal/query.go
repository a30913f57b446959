package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/souloss/TradingLab/backtest"
	"github.com/souloss/TradingLab/pkg/errors"
	"github.com/souloss/TradingLab/sim"
)

var tradeColumns = []string{
	"trade_id", "size", "entry_bar", "exit_bar", "entry_time", "exit_time",
	"entry_price", "exit_price", "stop_loss", "take_profit", "pnl", "commission",
	"return_pct", "duration_seconds", "tag", "synthetic",
}

var summaryColumns = []string{
	"run_id", "symbol", "name", "created", "strategies", "start_time", "end_time",
	"n_trades", "equity_final", "return_pct", "max_drawdown_pct", "sharpe_ratio",
}

// GetRun loads a recorded run with its trades, events and equity curve.
// Per-bar signals are not stored.
func (j *SQLite) GetRun(ctx context.Context, runID string) (*backtest.Result, error) {
	query, args, err := j.sq.
		Select("run_id", "symbol", "name", "created", "strategies", "combiner", "finalize", "stats", "events").
		From("runs").
		Where(squirrel.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}

	var (
		res                     backtest.Result
		cfgs, statsJSON, events string
		finalize                string
	)
	err = j.db.QueryRowContext(ctx, query, args...).Scan(
		&res.RunID, &res.Symbol, &res.Name, &res.Created, &cfgs, &res.Combiner, &finalize, &statsJSON, &events,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Newf(errors.ErrCodeNotFound, "run %q not found", runID)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorage, err, "get run %s", runID)
	}
	res.Finalize = sim.FinalizePolicy(finalize)

	if err := json.Unmarshal([]byte(cfgs), &res.Strategies); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "decode strategies", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &res.Stats); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "decode stats", err)
	}
	if err := json.Unmarshal([]byte(events), &res.Events); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "decode events", err)
	}

	if res.Trades, err = j.ListTrades(ctx, runID); err != nil {
		return nil, err
	}
	if res.EquityCurve, err = j.ListEquity(ctx, runID); err != nil {
		return nil, err
	}
	res.Stats.Trades = res.Trades
	res.Stats.EquityCurve = res.EquityCurve
	return &res, nil
}

// ListRuns returns one page of runs, newest first.
func (j *SQLite) ListRuns(ctx context.Context, f Filter) (RunPage, error) {
	page, size := f.limits()

	where := squirrel.And{}
	if f.Symbol != "" {
		where = append(where, squirrel.Eq{"symbol": f.Symbol})
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		where = append(where, squirrel.Or{squirrel.Like{"symbol": kw}, squirrel.Like{"name": kw}})
	}

	out := RunPage{Items: []RunSummary{}, Page: page, PageSize: size}

	countQuery, args, err := j.sq.Select("COUNT(*)").From("runs").Where(where).ToSql()
	if err != nil {
		return out, errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}
	if err := j.db.QueryRowContext(ctx, countQuery, args...).Scan(&out.Total); err != nil {
		return out, errors.Wrap(errors.ErrCodeStorage, "count runs", err)
	}

	query, args, err := j.sq.
		Select(summaryColumns...).
		From("runs").
		Where(where).
		OrderBy("created DESC", "run_id DESC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return out, errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, errors.Wrap(errors.ErrCodeStorage, "list runs", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s                  RunSummary
			cfgs               string
			ret, maxDD, sharpe sql.NullFloat64
		)
		if err := rows.Scan(
			&s.RunID, &s.Symbol, &s.Name, &s.Created, &cfgs, &s.Start, &s.End,
			&s.NTrades, &s.EquityFinal, &ret, &maxDD, &sharpe,
		); err != nil {
			return out, errors.Wrap(errors.ErrCodeStorage, "scan run", err)
		}
		if err := json.Unmarshal([]byte(cfgs), &s.Strategies); err != nil {
			return out, errors.Wrap(errors.ErrCodeStorage, "decode strategies", err)
		}
		s.ReturnPct = floatOption(ret)
		s.MaxDrawdownPct = floatOption(maxDD)
		s.SharpeRatio = floatOption(sharpe)
		out.Items = append(out.Items, s)
	}
	if err := rows.Err(); err != nil {
		return out, errors.Wrap(errors.ErrCodeStorage, "list runs", err)
	}
	return out, nil
}

// ListTrades returns the trades of a run in entry order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]sim.Trade, error) {
	return j.queryTrades(ctx, j.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("entry_bar ASC"))
}

// ListTradesClosedBetween returns trades of every run whose exit time is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]sim.Trade, error) {
	return j.queryTrades(ctx, j.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.GtOrEq{"exit_time": start.UTC()}).
		Where(squirrel.Lt{"exit_time": end.UTC()}).
		OrderBy("exit_time ASC"))
}

func (j *SQLite) queryTrades(ctx context.Context, b squirrel.SelectBuilder) ([]sim.Trade, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "list trades", err)
	}
	defer rows.Close()

	out := []sim.Trade{}
	for rows.Next() {
		var (
			t      sim.Trade
			sl, tp sql.NullFloat64
			tag    sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.Size, &t.EntryBar, &t.ExitBar, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &sl, &tp, &t.PnL, &t.Commission,
			&t.ReturnPct, &t.DurationSeconds, &tag, &t.Synthetic,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, "scan trade", err)
		}
		t.StopLoss = floatOption(sl)
		t.TakeProfit = floatOption(tp)
		t.Tag = stringOption(tag)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "list trades", err)
	}
	return out, nil
}

// ListEquity returns the equity curve of a run in bar order.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]sim.EquityPoint, error) {
	query, args, err := j.sq.
		Select("bar", "time", "close", "equity", "cash", "shares", "drawdown_pct", "drawdown_duration_seconds").
		From("equity").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("bar ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "list equity", err)
	}
	defer rows.Close()

	out := []sim.EquityPoint{}
	for rows.Next() {
		var (
			p   sim.EquityPoint
			ddd sql.NullInt64
		)
		if err := rows.Scan(&p.Bar, &p.Time, &p.Close, &p.Equity, &p.Cash, &p.Shares, &p.DrawdownPct, &ddd); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, "scan equity point", err)
		}
		p.DrawdownDuration = intOption(ddd)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, "list equity", err)
	}
	return out, nil
}

// DeleteRun removes a run and everything recorded with it.
func (j *SQLite) DeleteRun(ctx context.Context, runID string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"trades", "equity"} {
		if err := exec(ctx, tx, j.sq.Delete(table).Where(squirrel.Eq{"run_id": runID})); err != nil {
			return errors.Wrapf(errors.ErrCodeStorage, err, "delete %s of run %s", table, runID)
		}
	}

	query, args, err := j.sq.Delete("runs").Where(squirrel.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "build query", err)
	}
	r, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorage, err, "delete run %s", runID)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "run %q not found", runID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, "commit", err)
	}
	return nil
}
