package engine

import (
	"decisionbacktester/types"
	"time"

	"github.com/shopspring/decimal"
)

type order struct {
	side   types.Action
	shares decimal.Decimal
	price  decimal.Decimal
	date   time.Time
}

func newOrder(side types.Action, shares, price decimal.Decimal, date time.Time) order {
	return order{side: side, shares: shares, price: price, date: date}
}

func (o order) value() decimal.Decimal {
	return o.shares.Mul(o.price)
}
