package store

import (
	"context"
	"database/sql"
	"decisionbacktester/internal/reporting"
	"decisionbacktester/types"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

// timestampLayout is fixed width so runs sort by generated_at as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists the settings, reports, curves and ledgers of a bundle in
// one transaction.
func (s *Store) SaveRun(ctx context.Context, b *reporting.Bundle) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, initial_cash, lot_policy, repeat_buy,
			risk_free_rate, var_confidence, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.RunID.String(), b.GeneratedAt.UTC().Format(timestampLayout),
		b.Settings.InitialCash, b.Settings.LotPolicy, b.Settings.RepeatBuy,
		b.Settings.RiskFreeRate, b.Settings.VaRConfidence, len(b.Failures),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", b.RunID, err)
	}

	for _, r := range b.Results {
		if err = insertReport(ctx, tx, b.RunID, r.Report); err != nil {
			return err
		}
		if err = insertCurve(ctx, tx, b.RunID, r.Ticker, r.Curve); err != nil {
			return err
		}
		if err = insertLedger(ctx, tx, b.RunID, r.Ticker, r.Ledger); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", b.RunID, err)
	}
	return nil
}

func insertReport(ctx context.Context, tx *sql.Tx, runID uuid.UUID, r types.RiskReport) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO risk_reports (run_id, ticker, start_date, end_date, initial_cash,
			final_equity, net_profit, total_return, annualized_return, sharpe_ratio,
			sortino_ratio, volatility, max_drawdown, max_drawdown_duration, value_at_risk,
			expected_shortfall, var_confidence, trade_count, win_rate, avg_win, avg_loss,
			profit_factor, max_consecutive_losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), r.Ticker, r.StartDate.Format(types.DateLayout), r.EndDate.Format(types.DateLayout),
		r.InitialCash, r.FinalEquity, r.NetProfit, r.TotalReturn, r.AnnualizedReturn,
		r.SharpeRatio, r.SortinoRatio, r.Volatility, r.MaxDrawdown, int64(r.MaxDrawdownDuration),
		nullMetric(r.ValueAtRisk), nullMetric(r.ExpectedShortfall), r.VaRConfidence,
		r.TradeCount, nullMetric(r.WinRate), r.AvgWin, r.AvgLoss,
		nullMetric(r.ProfitFactor), r.MaxConsecutiveLosses,
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.Ticker, err)
	}
	return nil
}

func insertCurve(ctx context.Context, tx *sql.Tx, runID uuid.UUID, ticker string, curve []types.EquityPoint) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO equity_points (run_id, ticker, date, price, shares, cash)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range curve {
		if _, err := stmt.ExecContext(ctx, runID.String(), ticker, p.Date.Format(types.DateLayout),
			p.Price, p.Shares, p.Cash); err != nil {
			return fmt.Errorf("insert equity point %s %s: %w", ticker, p.Date.Format(types.DateLayout), err)
		}
	}
	return nil
}

func insertLedger(ctx context.Context, tx *sql.Tx, runID uuid.UUID, ticker string, ledger []types.LedgerEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_entries (run_id, ticker, seq, date, action, shares, price,
			cash_delta, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range ledger {
		if _, err := stmt.ExecContext(ctx, runID.String(), ticker, i, e.Date.Format(types.DateLayout),
			string(e.Action), e.Shares, e.Price, e.CashDelta, e.RealizedPnL); err != nil {
			return fmt.Errorf("insert ledger entry %s #%d: %w", ticker, i, err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, generated_at, initial_cash, lot_policy, repeat_buy, tickers, failures, avg_return
		FROM v_run_summary ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			r           RunSummary
			generatedAt string
		)
		if err := rows.Scan(&r.ID, &generatedAt, &r.InitialCash, &r.LotPolicy, &r.RepeatBuy,
			&r.Tickers, &r.Failures, &r.AvgReturn); err != nil {
			return nil, err
		}
		if r.GeneratedAt, err = time.Parse(timestampLayout, generatedAt); err != nil {
			return nil, fmt.Errorf("run %s generated_at: %w", r.ID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) GetReports(ctx context.Context, runID uuid.UUID) ([]types.RiskReport, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, start_date, end_date, initial_cash, final_equity, net_profit,
			total_return, annualized_return, sharpe_ratio, sortino_ratio, volatility,
			max_drawdown, max_drawdown_duration, value_at_risk, expected_shortfall,
			var_confidence, trade_count, win_rate, avg_win, avg_loss, profit_factor,
			max_consecutive_losses
		FROM risk_reports WHERE run_id = ? ORDER BY ticker`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.RiskReport
	for rows.Next() {
		var (
			r                        types.RiskReport
			startDate, endDate       string
			ddDuration               int64
			varValue, es, wr, factor sql.NullFloat64
		)
		if err := rows.Scan(&r.Ticker, &startDate, &endDate, &r.InitialCash, &r.FinalEquity,
			&r.NetProfit, &r.TotalReturn, &r.AnnualizedReturn, &r.SharpeRatio, &r.SortinoRatio,
			&r.Volatility, &r.MaxDrawdown, &ddDuration, &varValue, &es, &r.VaRConfidence,
			&r.TradeCount, &wr, &r.AvgWin, &r.AvgLoss, &factor, &r.MaxConsecutiveLosses); err != nil {
			return nil, err
		}
		if r.StartDate, err = types.ParseDay(startDate); err != nil {
			return nil, err
		}
		if r.EndDate, err = types.ParseDay(endDate); err != nil {
			return nil, err
		}
		r.MaxDrawdownDuration = time.Duration(ddDuration)
		r.ValueAtRisk = toMetric(varValue)
		r.ExpectedShortfall = toMetric(es)
		r.WinRate = toMetric(wr)
		r.ProfitFactor = toMetric(factor)
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetEquityCurve rebuilds the stored equity curve of one ticker in a run.
func (s *Store) GetEquityCurve(ctx context.Context, runID uuid.UUID, ticker string) ([]types.EquityPoint, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, price, shares, cash FROM equity_points
		WHERE run_id = ? AND ticker = ? ORDER BY date`, runID.String(), ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var curve []types.EquityPoint
	for rows.Next() {
		var (
			date                string
			price, shares, cash decimal.Decimal
		)
		if err := rows.Scan(&date, &price, &shares, &cash); err != nil {
			return nil, err
		}
		day, err := types.ParseDay(date)
		if err != nil {
			return nil, err
		}
		curve = append(curve, types.NewEquityPoint(day, price, shares, cash))
	}
	return curve, rows.Err()
}

func (s *Store) runExists(ctx context.Context, runID uuid.UUID) error {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID.String()).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func nullMetric(m types.Metric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Available}
}

func toMetric(v sql.NullFloat64) types.Metric {
	if !v.Valid {
		return types.Unavailable()
	}
	return types.Available(v.Float64)
}
