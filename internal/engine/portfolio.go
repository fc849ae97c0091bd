package engine

import (
	"decisionbacktester/types"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var UnknownSideErr = errors.New("unknown order side")
var InsufficientBalanceErr = errors.New("insufficient balance when applying order")
var NegativeSharesErr = errors.New("sell exceeds shares held in portfolio")

type portfolio struct {
	ticker   string
	cash     decimal.Decimal
	position *types.Position
	ledger   []types.LedgerEntry
	curve    []types.EquityPoint
}

func newPortfolio(ticker string, initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		ticker: ticker,
		cash:   initialCash,
	}
}

func (p *portfolio) shares() decimal.Decimal {
	if p.position == nil {
		return decimal.Zero
	}
	return p.position.Shares
}

func (p *portfolio) snapshot() portfolioView {
	view := portfolioView{Cash: p.cash}
	if p.position != nil {
		view.Shares = p.position.Shares
		view.CostBasis = p.position.CostBasis
	}
	return view
}

// apply executes o against cash and the open position and appends the ledger entry.
func (p *portfolio) apply(o order) error {
	switch o.side {
	case types.ActionBuy:
		return p.buy(o)
	case types.ActionSell:
		return p.sell(o)
	default:
		return fmt.Errorf("%w: %q", UnknownSideErr, o.side)
	}
}

func (p *portfolio) buy(o order) error {
	cost := o.value()
	newCash := p.cash.Sub(cost)
	if newCash.IsNegative() {
		return InsufficientBalanceErr
	}
	p.cash = newCash

	if p.position == nil {
		p.position = &types.Position{
			Ticker:    p.ticker,
			Shares:    o.shares,
			CostBasis: o.price,
			OpenedAt:  o.date,
		}
	} else {
		p.position.CostBasis = weightedAvg(p.position.CostBasis, p.position.Shares, o.price, o.shares)
		p.position.Shares = p.position.Shares.Add(o.shares)
	}

	p.ledger = append(p.ledger, types.LedgerEntry{
		Date:      o.date,
		Action:    types.ActionBuy,
		Shares:    o.shares,
		Price:     o.price,
		CashDelta: cost.Neg(),
	})
	return nil
}

func (p *portfolio) sell(o order) error {
	held := p.shares()
	if o.shares.GreaterThan(held) {
		return NegativeSharesErr
	}
	proceeds := o.value()
	p.cash = p.cash.Add(proceeds)

	realized := o.shares.Mul(o.price.Sub(p.position.CostBasis))
	remaining := held.Sub(o.shares)
	if remaining.IsZero() {
		p.position = nil
	} else {
		p.position.Shares = remaining
	}

	p.ledger = append(p.ledger, types.LedgerEntry{
		Date:        o.date,
		Action:      types.ActionSell,
		Shares:      o.shares,
		Price:       o.price,
		CashDelta:   proceeds,
		RealizedPnL: decimal.NewNullDecimal(realized),
	})
	return nil
}

// markToMarket records the equity of the portfolio at price on date.
func (p *portfolio) markToMarket(date time.Time, price decimal.Decimal) types.EquityPoint {
	point := types.NewEquityPoint(date, price, p.shares(), p.cash)
	p.curve = append(p.curve, point)
	return point
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
