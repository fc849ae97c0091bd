package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Decision struct {
	Date   time.Time `json:"date"`
	Action Action    `json:"action"`
	// Size is the fraction of available cash (BUY) or of held shares (SELL).
	// Zero means the default of 1.
	Size       decimal.Decimal `json:"size"`
	Confidence float64         `json:"confidence,omitempty"`
}

func NewDecision(date time.Time, action Action, size decimal.Decimal) Decision {
	return Decision{
		Date:   Day(date),
		Action: action,
		Size:   size,
	}
}

// EffectiveSize resolves the zero value to a full-size decision.
func (d Decision) EffectiveSize() decimal.Decimal {
	if d.Size.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d.Size
}

type SkippedDecision struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
}

type DecisionStats struct {
	Buy   int `json:"buy"`
	Hold  int `json:"hold"`
	Sell  int `json:"sell"`
	Total int `json:"total"`
}

func CountDecisions(decisions []Decision) DecisionStats {
	var stats DecisionStats
	for _, d := range decisions {
		switch d.Action {
		case ActionBuy:
			stats.Buy++
		case ActionHold:
			stats.Hold++
		case ActionSell:
			stats.Sell++
		}
		stats.Total++
	}
	return stats
}
