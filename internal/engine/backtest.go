package engine

import (
	"decisionbacktester/types"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrNoDecisions = fmt.Errorf("%w: no decisions", ErrInvalidInput)

const (
	SkipNoPriorPrice   = "no price on or before decision date"
	SkipAfterLastPrice = "decision after last available price"
)

// Simulation is the outcome of replaying one ticker's decisions. It is not
// mutated after Simulate returns.
type Simulation struct {
	Ticker      string
	InitialCash decimal.Decimal
	Curve       []types.EquityPoint
	Ledger      []types.LedgerEntry
	Skipped     []types.SkippedDecision
	// Position is the position still open at the end, zero when flat.
	Position  types.Position
	Decisions types.DecisionStats
}

type backtester struct {
	ticker    string
	prices    []types.PricePoint
	decisions []types.Decision
	allocator longOnlyAllocator
	portfolio *portfolio

	curTime       time.Time
	priceIndex    int
	decisionIndex int
	skipped       []types.SkippedDecision
}

// Simulate replays decisions against prices for one ticker. Invalid input
// aborts the simulation without a partial result; decisions that cannot be
// priced are reported in Simulation.Skipped.
func Simulate(ticker string, prices []types.PricePoint, decisions []types.Decision, cfg PortfolioConfig) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	prices, err := normalizePrices(prices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	decisions, err = normalizeDecisions(decisions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	b := &backtester{
		ticker:     ticker,
		prices:     prices,
		decisions:  decisions,
		allocator:  newLongOnlyAllocator(cfg),
		portfolio:  newPortfolio(ticker, cfg.initialCash),
		priceIndex: -1,
	}
	if err := b.run(); err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	sim := &Simulation{
		Ticker:      ticker,
		InitialCash: cfg.initialCash,
		Curve:       b.portfolio.curve,
		Ledger:      b.portfolio.ledger,
		Skipped:     b.skipped,
		Decisions:   types.CountDecisions(decisions),
	}
	if b.portfolio.position != nil {
		sim.Position = *b.portfolio.position
	}
	return sim, nil
}

func (b *backtester) run() error {
	start, end := b.timeRange()

	for b.decisionIndex < len(b.decisions) && b.decisions[b.decisionIndex].Date.Before(b.prices[0].Date) {
		b.skip(SkipNoPriorPrice)
	}
	for b.priceIndex+1 < len(b.prices) && b.prices[b.priceIndex+1].Date.Before(start) {
		b.priceIndex++
	}

	for {
		next, ok := b.nextTime(end)
		if !ok {
			break
		}
		b.curTime = next
		b.priceIndex = advancePriceIndex(b.prices, b.priceIndex, b.curTime)
		price := b.prices[b.priceIndex].Close

		if d, ok := b.decisionAt(b.curTime); ok {
			if o, ok := b.allocator.allocate(d, price, b.portfolio.snapshot()); ok {
				if err := b.portfolio.apply(o); err != nil {
					return err
				}
			}
		}

		b.portfolio.markToMarket(b.curTime, price)
	}

	for b.decisionIndex < len(b.decisions) {
		b.skip(SkipAfterLastPrice)
	}
	return nil
}

// timeRange spans the first decision date to the last price date.
func (b *backtester) timeRange() (time.Time, time.Time) {
	return b.decisions[0].Date, b.prices[len(b.prices)-1].Date
}

// nextTime returns the earliest price or decision date after curTime that is
// not after end.
func (b *backtester) nextTime(end time.Time) (time.Time, bool) {
	var next time.Time
	found := false

	if i := b.priceIndex + 1; i < len(b.prices) && !b.prices[i].Date.After(end) {
		next, found = b.prices[i].Date, true
	}
	if b.decisionIndex < len(b.decisions) {
		d := b.decisions[b.decisionIndex].Date
		if !d.After(end) && (!found || d.Before(next)) {
			next, found = d, true
		}
	}
	return next, found
}

func (b *backtester) decisionAt(t time.Time) (types.Decision, bool) {
	if b.decisionIndex >= len(b.decisions) {
		return types.Decision{}, false
	}
	d := b.decisions[b.decisionIndex]
	if !d.Date.Equal(t) {
		return types.Decision{}, false
	}
	b.decisionIndex++
	return d, true
}

func (b *backtester) skip(reason string) {
	b.skipped = append(b.skipped, types.SkippedDecision{
		Decision: b.decisions[b.decisionIndex],
		Reason:   reason,
	})
	b.decisionIndex++
}

// advancePriceIndex moves forward to the last price dated at or before curTime.
// Index only goes one way.
func advancePriceIndex(prices []types.PricePoint, prevIndex int, curTime time.Time) int {
	if prevIndex < -1 {
		prevIndex = -1
	}
	for prevIndex+1 < len(prices) && !prices[prevIndex+1].Date.After(curTime) {
		prevIndex++
	}
	return prevIndex
}

func normalizePrices(prices []types.PricePoint) ([]types.PricePoint, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty price series", ErrInvalidInput)
	}
	out := make([]types.PricePoint, len(prices))
	for i, p := range prices {
		p.Date = types.Day(p.Date)
		if !p.Close.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive close %s on %s", ErrInvalidInput, p.Close, p.Date.Format(types.DateLayout))
		}
		if p.Volume < 0 {
			return nil, fmt.Errorf("%w: negative volume on %s", ErrInvalidInput, p.Date.Format(types.DateLayout))
		}
		if i > 0 && !p.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("%w: price dates not strictly increasing at %s", ErrInvalidInput, p.Date.Format(types.DateLayout))
		}
		out[i] = p
	}
	return out, nil
}

func normalizeDecisions(decisions []types.Decision) ([]types.Decision, error) {
	if len(decisions) == 0 {
		return nil, ErrNoDecisions
	}
	one := decimal.NewFromInt(1)
	out := make([]types.Decision, len(decisions))
	for i, d := range decisions {
		d.Date = types.Day(d.Date)
		if !d.Action.Valid() {
			return nil, fmt.Errorf("%w: unknown action %q on %s", ErrInvalidInput, d.Action, d.Date.Format(types.DateLayout))
		}
		if d.Size.IsNegative() || d.Size.GreaterThan(one) {
			return nil, fmt.Errorf("%w: size %s outside [0,1] on %s", ErrInvalidInput, d.Size, d.Date.Format(types.DateLayout))
		}
		if i > 0 && !d.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("%w: decision dates not strictly increasing at %s", ErrInvalidInput, d.Date.Format(types.DateLayout))
		}
		out[i] = d
	}
	return out, nil
}
