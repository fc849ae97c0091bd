package repository

import (
	"context"
	"decisionbacktester/types"
	"fmt"
)

// GetDecisions returns the decision log of ticker in date order.
func (db *Database) GetDecisions(ctx context.Context, ticker string) ([]types.Decision, error) {
	id, err := db.tickerID(ctx, ticker)
	if err != nil {
		return nil, err
	}
	rows, err := db.decisions.ListDecisions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list decisions for %s: %w", ticker, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ticker %s %w", ticker, ErrNoDecisions)
	}
	return convertDecisions(rows)
}

func convertDecisions(rows []decisionRow) ([]types.Decision, error) {
	decisions := make([]types.Decision, 0, len(rows))
	for _, row := range rows {
		action, err := types.ParseAction(row.Action)
		if err != nil {
			return nil, fmt.Errorf("decision on %s: %w", row.DecisionDate.Format(types.DateLayout), err)
		}
		d := types.NewDecision(row.DecisionDate, action, row.Size.Decimal)
		if row.Confidence != nil {
			d.Confidence = *row.Confidence
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
