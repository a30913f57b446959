package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	created DATETIME NOT NULL,
	strategies TEXT NOT NULL,
	combiner TEXT NOT NULL,
	finalize TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	n_trades INTEGER NOT NULL,
	equity_final REAL NOT NULL,
	return_pct REAL,
	max_drawdown_pct REAL,
	sharpe_ratio REAL,
	stats TEXT NOT NULL,
	events TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	size INTEGER NOT NULL,
	entry_bar INTEGER NOT NULL,
	exit_bar INTEGER NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	stop_loss REAL,
	take_profit REAL,
	pnl REAL NOT NULL,
	commission REAL NOT NULL,
	return_pct REAL NOT NULL,
	duration_seconds INTEGER NOT NULL,
	tag TEXT,
	synthetic INTEGER NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	bar INTEGER NOT NULL,
	time DATETIME NOT NULL,
	close REAL NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	shares INTEGER NOT NULL,
	drawdown_pct REAL NOT NULL,
	drawdown_duration_seconds INTEGER,
	PRIMARY KEY (run_id, bar)
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
`
