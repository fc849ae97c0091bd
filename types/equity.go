package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type EquityPoint struct {
	Date          time.Time       `json:"date"`
	Price         decimal.Decimal `json:"price"`
	Shares        decimal.Decimal `json:"shares"`
	Cash          decimal.Decimal `json:"cash"`
	PositionValue decimal.Decimal `json:"positionValue"`
	TotalEquity   decimal.Decimal `json:"totalEquity"`
}

func NewEquityPoint(date time.Time, price, shares, cash decimal.Decimal) EquityPoint {
	positionValue := shares.Mul(price)
	return EquityPoint{
		Date:          date,
		Price:         price,
		Shares:        shares,
		Cash:          cash,
		PositionValue: positionValue,
		TotalEquity:   cash.Add(positionValue),
	}
}

type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}
