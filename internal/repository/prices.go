package repository

import (
	"context"
	"decisionbacktester/types"
	"fmt"
)

// GetPriceSeries returns the daily closes of ticker in date order.
func (db *Database) GetPriceSeries(ctx context.Context, ticker string) ([]types.PricePoint, error) {
	id, err := db.tickerID(ctx, ticker)
	if err != nil {
		return nil, err
	}
	rows, err := db.prices.ListDailyPrices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list prices for %s: %w", ticker, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ticker %s %w", ticker, ErrNoPrices)
	}
	return convertPrices(rows), nil
}

func convertPrices(rows []dailyPriceRow) []types.PricePoint {
	prices := make([]types.PricePoint, 0, len(rows))
	for _, row := range rows {
		var volume int64
		if row.Volume != nil {
			volume = *row.Volume
		}
		prices = append(prices, types.NewPricePoint(row.TradeDate, row.Close, volume))
	}
	return prices
}
