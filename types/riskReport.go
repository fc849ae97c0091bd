package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type RiskReport struct {
	Ticker    string    `json:"ticker"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	// Absolute performance
	InitialCash      decimal.Decimal `json:"initialCash"`
	FinalEquity      decimal.Decimal `json:"finalEquity"`
	NetProfit        decimal.Decimal `json:"netProfit"`
	TotalReturn      float64         `json:"totalReturn"`
	AnnualizedReturn float64         `json:"annualizedReturn"`

	// Risk-adjusted
	SharpeRatio  float64 `json:"sharpeRatio"`
	SortinoRatio float64 `json:"sortinoRatio"`
	Volatility   float64 `json:"volatility"`

	// Drawdown
	MaxDrawdown         float64       `json:"maxDrawdown"`
	MaxDrawdownDuration time.Duration `json:"maxDrawdownDuration"`

	// Tail risk
	ValueAtRisk       Metric  `json:"valueAtRisk"`
	ExpectedShortfall Metric  `json:"expectedShortfall"`
	VaRConfidence     float64 `json:"varConfidence"`

	// Trade level
	TradeCount           int             `json:"tradeCount"`
	WinRate              Metric          `json:"winRate"`
	AvgWin               decimal.Decimal `json:"avgWin"`
	AvgLoss              decimal.Decimal `json:"avgLoss"`
	ProfitFactor         Metric          `json:"profitFactor"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`
}
