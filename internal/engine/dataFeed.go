package engine

import (
	"context"
	"decisionbacktester/types"
	"fmt"
)

// TickerInput is one ticker's price series and decision log, loaded before
// simulation starts.
type TickerInput struct {
	Ticker    string
	Prices    []types.PricePoint
	Decisions []types.Decision
}

// LoadTickerInput reads both series for ticker from db.
func LoadTickerInput(ctx context.Context, db dataStore, ticker string) (TickerInput, error) {
	prices, err := db.GetPriceSeries(ctx, ticker)
	if err != nil {
		return TickerInput{}, fmt.Errorf("load prices: %w", err)
	}
	decisions, err := db.GetDecisions(ctx, ticker)
	if err != nil {
		return TickerInput{}, fmt.Errorf("load decisions: %w", err)
	}
	return TickerInput{
		Ticker:    ticker,
		Prices:    prices,
		Decisions: decisions,
	}, nil
}
