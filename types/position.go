package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	Ticker    string          `json:"ticker"`
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"costBasis"`
	OpenedAt  time.Time       `json:"openedAt"`
}

func (p *Position) IsOpen() bool {
	return p != nil && p.Shares.IsPositive()
}
