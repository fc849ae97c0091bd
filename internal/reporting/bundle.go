package reporting

import (
	"decisionbacktester/types"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TickerResult is everything produced for one successfully simulated ticker.
type TickerResult struct {
	Ticker    string                  `json:"ticker"`
	Report    types.RiskReport        `json:"report"`
	Curve     []types.EquityPoint     `json:"equityCurve"`
	Ledger    []types.LedgerEntry     `json:"ledger"`
	Position  types.Position          `json:"openPosition"`
	Skipped   []types.SkippedDecision `json:"skippedDecisions"`
	Decisions types.DecisionStats     `json:"decisions"`
}

// TickerFailure records a ticker that could not be loaded or simulated.
type TickerFailure struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// Settings echoes the parameters a run was produced with.
type Settings struct {
	InitialCash   decimal.Decimal `json:"initialCash"`
	LotPolicy     string          `json:"lotPolicy"`
	RepeatBuy     string          `json:"repeatBuy"`
	RiskFreeRate  float64         `json:"riskFreeRate"`
	VaRConfidence float64         `json:"varConfidence"`
}

// Bundle is the result of one run. Results and Failures are sorted by ticker.
type Bundle struct {
	RunID       uuid.UUID               `json:"runId"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Settings    Settings                `json:"settings"`
	Results     []TickerResult          `json:"results"`
	Failures    []TickerFailure         `json:"failures"`
	Correlation types.CorrelationMatrix `json:"correlation"`
}

// Assemble builds a bundle from copies of its inputs, so later changes to the
// caller's slices are not visible through it.
func Assemble(settings Settings, results []TickerResult, failures []TickerFailure, correlation types.CorrelationMatrix) *Bundle {
	b := &Bundle{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Settings:    settings,
		Results:     make([]TickerResult, len(results)),
		Failures:    make([]TickerFailure, len(failures)),
		Correlation: copyMatrix(correlation),
	}
	for i, r := range results {
		r.Curve = append([]types.EquityPoint(nil), r.Curve...)
		r.Ledger = append([]types.LedgerEntry(nil), r.Ledger...)
		r.Skipped = append([]types.SkippedDecision(nil), r.Skipped...)
		b.Results[i] = r
	}
	copy(b.Failures, failures)

	sort.Slice(b.Results, func(i, j int) bool { return b.Results[i].Ticker < b.Results[j].Ticker })
	sort.Slice(b.Failures, func(i, j int) bool { return b.Failures[i].Ticker < b.Failures[j].Ticker })
	return b
}

func copyMatrix(m types.CorrelationMatrix) types.CorrelationMatrix {
	out := types.CorrelationMatrix{
		Tickers: append([]string(nil), m.Tickers...),
		Cells:   make([][]types.Metric, len(m.Cells)),
	}
	for i, row := range m.Cells {
		out.Cells[i] = append([]types.Metric(nil), row...)
	}
	return out
}

func (b *Bundle) Result(ticker string) (TickerResult, bool) {
	i := sort.Search(len(b.Results), func(i int) bool { return b.Results[i].Ticker >= ticker })
	if i < len(b.Results) && b.Results[i].Ticker == ticker {
		return b.Results[i], true
	}
	return TickerResult{}, false
}

func (b *Bundle) Reports() []types.RiskReport {
	reports := make([]types.RiskReport, len(b.Results))
	for i, r := range b.Results {
		reports[i] = r.Report
	}
	return reports
}
