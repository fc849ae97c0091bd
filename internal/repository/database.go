package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrTickerNotFound = errors.New("not found in datasource")
	ErrNoPrices       = errors.New("no prices found in datasource")
	ErrNoDecisions    = errors.New("no decisions found in datasource")
)

//go:embed schema.sql
var schemaSQL string

type tickersRepository interface {
	GetTickerID(ctx context.Context, symbol string) (int32, error)
}
type pricesRepository interface {
	ListDailyPrices(ctx context.Context, tickerID int32) ([]dailyPriceRow, error)
}
type decisionsRepository interface {
	ListDecisions(ctx context.Context, tickerID int32) ([]decisionRow, error)
}

// Database reads price series and decision logs from PostgreSQL.
type Database struct {
	tickers   tickersRepository
	prices    pricesRepository
	decisions decisionsRepository
	conn      *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	q := newQueries(conn)
	return &Database{
		tickers:   q,
		prices:    q,
		decisions: q,
		conn:      conn,
	}, nil
}

// Migrate creates the input tables when they do not exist.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

func (db *Database) tickerID(ctx context.Context, ticker string) (int32, error) {
	id, err := db.tickers.GetTickerID(ctx, ticker)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("ticker %s %w", ticker, ErrTickerNotFound)
		}
		return 0, err
	}
	return id, nil
}
