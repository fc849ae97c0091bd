package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntry struct {
	Date      time.Time       `json:"date"`
	Action    Action          `json:"action"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	CashDelta decimal.Decimal `json:"cashDelta"`
	// RealizedPnL is only valid on SELL entries.
	RealizedPnL decimal.NullDecimal `json:"realizedPnl"`
}

func (e LedgerEntry) Value() decimal.Decimal {
	return e.Shares.Mul(e.Price)
}

func (e LedgerEntry) IsClose() bool {
	return e.Action == ActionSell && e.RealizedPnL.Valid
}
