package store

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	generated_at   TEXT NOT NULL,
	initial_cash   TEXT NOT NULL,
	lot_policy     TEXT NOT NULL,
	repeat_buy     TEXT NOT NULL,
	risk_free_rate REAL NOT NULL DEFAULT 0,
	var_confidence REAL NOT NULL,
	failures       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);

CREATE TABLE IF NOT EXISTS risk_reports (
	run_id                  TEXT NOT NULL REFERENCES runs(run_id),
	ticker                  TEXT NOT NULL,
	start_date              TEXT NOT NULL,
	end_date                TEXT NOT NULL,
	initial_cash            TEXT NOT NULL,
	final_equity            TEXT NOT NULL,
	net_profit              TEXT NOT NULL,
	total_return            REAL NOT NULL,
	annualized_return       REAL NOT NULL,
	sharpe_ratio            REAL NOT NULL,
	sortino_ratio           REAL NOT NULL,
	volatility              REAL NOT NULL,
	max_drawdown            REAL NOT NULL,
	max_drawdown_duration   INTEGER NOT NULL,
	value_at_risk           REAL,
	expected_shortfall      REAL,
	var_confidence          REAL NOT NULL,
	trade_count             INTEGER NOT NULL DEFAULT 0,
	win_rate                REAL,
	avg_win                 TEXT NOT NULL,
	avg_loss                TEXT NOT NULL,
	profit_factor           REAL,
	max_consecutive_losses  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, ticker)
);

CREATE TABLE IF NOT EXISTS equity_points (
	run_id         TEXT NOT NULL REFERENCES runs(run_id),
	ticker         TEXT NOT NULL,
	date           TEXT NOT NULL,
	price          TEXT NOT NULL,
	shares         TEXT NOT NULL,
	cash           TEXT NOT NULL,
	PRIMARY KEY (run_id, ticker, date)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	run_id       TEXT NOT NULL REFERENCES runs(run_id),
	ticker       TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	date         TEXT NOT NULL,
	action       TEXT NOT NULL,
	shares       TEXT NOT NULL,
	price        TEXT NOT NULL,
	cash_delta   TEXT NOT NULL,
	realized_pnl TEXT,
	PRIMARY KEY (run_id, ticker, seq)
);

CREATE VIEW IF NOT EXISTS v_run_summary AS
SELECT
	r.run_id,
	r.generated_at,
	r.initial_cash,
	r.lot_policy,
	r.repeat_buy,
	r.failures,
	COUNT(rr.ticker) AS tickers,
	COALESCE(AVG(rr.total_return), 0) AS avg_return
FROM runs r
LEFT JOIN risk_reports rr ON rr.run_id = r.run_id
GROUP BY r.run_id;
`
