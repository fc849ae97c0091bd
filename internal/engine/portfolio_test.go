package engine

import (
	"decisionbacktester/types"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPortfolioApply(t *testing.T) {
	tests := []struct {
		name          string
		start         func() *portfolio
		orders        []order
		wantCash      decimal.Decimal
		wantShares    decimal.Decimal
		wantCostBasis decimal.Decimal
		wantLedger    int
		wantErr       error
	}{
		{
			name:  "open long",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
			},
			wantCash:      decimal.NewFromInt(9000),
			wantShares:    decimal.NewFromInt(10),
			wantCostBasis: decimal.NewFromInt(100),
			wantLedger:    1,
		},
		{
			name:  "scale in updates cost basis",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
				newOrder(types.ActionBuy, decimal.NewFromInt(5), decimal.NewFromInt(110), day(2)),
			},
			wantCash:      decimal.NewFromInt(8450),
			wantShares:    decimal.NewFromInt(15),
			wantCostBasis: decimal.RequireFromString("1550").Div(decimal.NewFromInt(15)),
			wantLedger:    2,
		},
		{
			name:  "partial close keeps cost basis",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
				newOrder(types.ActionSell, decimal.NewFromInt(4), decimal.NewFromInt(120), day(2)),
			},
			wantCash:      decimal.NewFromInt(9480),
			wantShares:    decimal.NewFromInt(6),
			wantCostBasis: decimal.NewFromInt(100),
			wantLedger:    2,
		},
		{
			name:  "full close drops the position",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
				newOrder(types.ActionSell, decimal.NewFromInt(10), decimal.NewFromInt(90), day(2)),
			},
			wantCash:   decimal.NewFromInt(9900),
			wantShares: decimal.Zero,
			wantLedger: 2,
		},
		{
			name:  "buy beyond cash",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(500)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
			},
			wantErr: InsufficientBalanceErr,
		},
		{
			name:  "sell more than held",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionBuy, decimal.NewFromInt(1), decimal.NewFromInt(100), day(1)),
				newOrder(types.ActionSell, decimal.NewFromInt(2), decimal.NewFromInt(100), day(2)),
			},
			wantErr: NegativeSharesErr,
		},
		{
			name:  "hold is not an order",
			start: func() *portfolio { return newPortfolio("AAPL", decimal.NewFromInt(10000)) },
			orders: []order{
				newOrder(types.ActionHold, decimal.NewFromInt(1), decimal.NewFromInt(100), day(1)),
			},
			wantErr: UnknownSideErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start()
			var err error
			for _, o := range tt.orders {
				if err = p.apply(o); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("apply() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("apply() error = %v", err)
			}

			if !p.cash.Equal(tt.wantCash) {
				t.Errorf("cash = %s, want %s", p.cash, tt.wantCash)
			}
			if !p.shares().Equal(tt.wantShares) {
				t.Errorf("shares = %s, want %s", p.shares(), tt.wantShares)
			}
			if tt.wantShares.IsZero() {
				if p.position != nil {
					t.Errorf("position = %+v, want nil", p.position)
				}
			} else if !p.position.CostBasis.Equal(tt.wantCostBasis) {
				t.Errorf("cost basis = %s, want %s", p.position.CostBasis, tt.wantCostBasis)
			}
			if len(p.ledger) != tt.wantLedger {
				t.Errorf("ledger length = %d, want %d", len(p.ledger), tt.wantLedger)
			}
		})
	}
}

func TestPortfolioSellRealizedPnL(t *testing.T) {
	p := newPortfolio("MSFT", decimal.NewFromInt(10000))
	orders := []order{
		newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(100), day(1)),
		newOrder(types.ActionBuy, decimal.NewFromInt(10), decimal.NewFromInt(120), day(2)),
		newOrder(types.ActionSell, decimal.NewFromInt(20), decimal.NewFromInt(130), day(3)),
	}
	for _, o := range orders {
		if err := p.apply(o); err != nil {
			t.Fatalf("apply() error = %v", err)
		}
	}
	last := p.ledger[len(p.ledger)-1]
	// cost basis 110, so 20 x (130 - 110)
	if !last.RealizedPnL.Valid || !last.RealizedPnL.Decimal.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("realized pnl = %v, want 400", last.RealizedPnL)
	}
	if !last.CashDelta.Equal(decimal.NewFromInt(2600)) {
		t.Fatalf("cash delta = %s, want 2600", last.CashDelta)
	}
}

func TestPortfolioMarkToMarket(t *testing.T) {
	p := newPortfolio("MSFT", decimal.NewFromInt(1000))
	if err := p.apply(newOrder(types.ActionBuy, decimal.NewFromInt(5), decimal.NewFromInt(100), day(1))); err != nil {
		t.Fatal(err)
	}
	point := p.markToMarket(day(2), decimal.NewFromInt(120))

	if !point.Cash.Equal(decimal.NewFromInt(500)) || !point.PositionValue.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("point = %+v", point)
	}
	if !point.TotalEquity.Equal(decimal.NewFromInt(1100)) {
		t.Fatalf("total equity = %s, want 1100", point.TotalEquity)
	}
	if len(p.curve) != 1 {
		t.Fatalf("curve length = %d, want 1", len(p.curve))
	}
}

func TestWeightedAvgPrice(t *testing.T) {
	tests := []struct {
		name             string
		existingAvgPrice decimal.Decimal
		existingQty      decimal.Decimal
		newPrice         decimal.Decimal
		newQty           decimal.Decimal
		want             decimal.Decimal
	}{
		{
			name:             "nothing held returns new price",
			existingAvgPrice: decimal.RequireFromString("0"),
			existingQty:      decimal.RequireFromString("0"),
			newPrice:         decimal.RequireFromString("123.45"),
			newQty:           decimal.RequireFromString("10"),
			want:             decimal.RequireFromString("123.45"),
		},
		{
			name:             "zero new quantity keeps average",
			existingAvgPrice: decimal.RequireFromString("100"),
			existingQty:      decimal.RequireFromString("10"),
			newPrice:         decimal.RequireFromString("150"),
			newQty:           decimal.RequireFromString("0"),
			want:             decimal.RequireFromString("100"),
		},
		{
			name:             "repeating decimal",
			existingAvgPrice: decimal.RequireFromString("100"),
			existingQty:      decimal.RequireFromString("10"),
			newPrice:         decimal.RequireFromString("110"),
			newQty:           decimal.RequireFromString("5"),
			want:             decimal.RequireFromString("103.3333333333333333"),
		},
		{
			name:             "fractional quantities",
			existingAvgPrice: decimal.RequireFromString("30000"),
			existingQty:      decimal.RequireFromString("0.5"),
			newPrice:         decimal.RequireFromString("40000"),
			newQty:           decimal.RequireFromString("0.5"),
			want:             decimal.RequireFromString("35000"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := weightedAvg(tc.existingAvgPrice, tc.existingQty, tc.newPrice, tc.newQty)
			if !got.Equal(tc.want) {
				t.Fatalf("got %s, want %s", got.String(), tc.want.String())
			}
		})
	}
}
