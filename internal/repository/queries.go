package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

const getTickerID = `
SELECT id FROM tickers WHERE symbol = $1
`

func (q *queries) GetTickerID(ctx context.Context, symbol string) (int32, error) {
	var id int32
	err := q.db.QueryRow(ctx, getTickerID, symbol).Scan(&id)
	return id, err
}

type dailyPriceRow struct {
	TradeDate time.Time
	Close     decimal.Decimal
	Volume    *int64
}

const listDailyPrices = `
SELECT trade_date, close, volume
FROM daily_prices
WHERE ticker_id = $1
ORDER BY trade_date
`

func (q *queries) ListDailyPrices(ctx context.Context, tickerID int32) ([]dailyPriceRow, error) {
	rows, err := q.db.Query(ctx, listDailyPrices, tickerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[dailyPriceRow])
}

type decisionRow struct {
	DecisionDate time.Time
	Action       string
	Size         decimal.NullDecimal
	Confidence   *float64
}

const listDecisions = `
SELECT decision_date, action, size, confidence
FROM trade_decisions
WHERE ticker_id = $1
ORDER BY decision_date
`

func (q *queries) ListDecisions(ctx context.Context, tickerID int32) ([]decisionRow, error) {
	rows, err := q.db.Query(ctx, listDecisions, tickerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[decisionRow])
}
