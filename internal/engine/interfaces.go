package engine

import (
	"context"
	"decisionbacktester/types"
)

// dataStore supplies fully materialized inputs for one ticker. Both the
// PostgreSQL repository and the CSV directory source satisfy it.
type dataStore interface {
	GetPriceSeries(ctx context.Context, ticker string) ([]types.PricePoint, error)
	GetDecisions(ctx context.Context, ticker string) ([]types.Decision, error)
}
