package engine

import (
	"decisionbacktester/types"

	"github.com/shopspring/decimal"
)

type portfolioView struct {
	Cash      decimal.Decimal
	Shares    decimal.Decimal
	CostBasis decimal.Decimal
}

// longOnlyAllocator turns a decision into at most one order. The decision
// stream mixes intent with action, so a BUY while invested and a SELL while
// flat are no-ops rather than errors.
type longOnlyAllocator struct {
	lotPolicy LotPolicy
	repeatBuy RepeatBuyPolicy
}

func newLongOnlyAllocator(cfg PortfolioConfig) longOnlyAllocator {
	return longOnlyAllocator{
		lotPolicy: cfg.lotPolicy,
		repeatBuy: cfg.repeatBuy,
	}
}

func (a longOnlyAllocator) allocate(d types.Decision, price decimal.Decimal, view portfolioView) (order, bool) {
	size := d.EffectiveSize()

	switch d.Action {
	case types.ActionBuy:
		// Already invested: first BUY wins unless scaling in is enabled.
		if view.Shares.IsPositive() && a.repeatBuy != RepeatBuyScaleIn {
			return order{}, false
		}
		qty := a.quantityForCapital(price, view.Cash.Mul(size))
		if !qty.IsPositive() {
			return order{}, false
		}
		return newOrder(types.ActionBuy, qty, price, d.Date), true

	case types.ActionSell:
		if !view.Shares.IsPositive() {
			return order{}, false
		}
		qty := a.quantityToSell(view.Shares, size)
		if !qty.IsPositive() {
			return order{}, false
		}
		return newOrder(types.ActionSell, qty, price, d.Date), true
	}

	return order{}, false
}

// quantityForCapital is the largest lot-conforming quantity whose cost does
// not exceed capital.
func (a longOnlyAllocator) quantityForCapital(price, capital decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !capital.IsPositive() {
		return decimal.Zero
	}
	step := a.lotStep()
	qty := a.roundDown(capital.Div(price))
	// Div rounds at DivisionPrecision, which can land one step above the exact quotient.
	for qty.IsPositive() && qty.Mul(price).GreaterThan(capital) {
		qty = qty.Sub(step)
	}
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

func (a longOnlyAllocator) quantityToSell(held, size decimal.Decimal) decimal.Decimal {
	if size.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return held
	}
	qty := a.roundDown(held.Mul(size))
	if qty.GreaterThan(held) {
		return held
	}
	return qty
}

func (a longOnlyAllocator) roundDown(qty decimal.Decimal) decimal.Decimal {
	if a.lotPolicy == LotFractional {
		return qty.Truncate(fractionalDecimals)
	}
	return qty.Floor()
}

func (a longOnlyAllocator) lotStep() decimal.Decimal {
	if a.lotPolicy == LotFractional {
		return decimal.New(1, -fractionalDecimals)
	}
	return decimal.NewFromInt(1)
}
