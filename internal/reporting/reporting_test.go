package reporting

import (
	"bytes"
	"decisionbacktester/types"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func mockLedger() []types.LedgerEntry {
	return []types.LedgerEntry{
		{
			Date:      day0,
			Action:    types.ActionBuy,
			Shares:    decimal.NewFromInt(100),
			Price:     decimal.NewFromInt(100),
			CashDelta: decimal.NewFromInt(-10000),
		},
		{
			Date:        day0.AddDate(0, 0, 2),
			Action:      types.ActionSell,
			Shares:      decimal.NewFromInt(100),
			Price:       decimal.NewFromInt(80),
			CashDelta:   decimal.NewFromInt(8000),
			RealizedPnL: decimal.NewNullDecimal(decimal.NewFromInt(-2000)),
		},
	}
}

func mockCurve() []types.EquityPoint {
	hundred := decimal.NewFromInt(100)
	return []types.EquityPoint{
		types.NewEquityPoint(day0, decimal.NewFromInt(100), hundred, decimal.Zero),
		types.NewEquityPoint(day0.AddDate(0, 0, 1), decimal.NewFromInt(90), hundred, decimal.Zero),
		types.NewEquityPoint(day0.AddDate(0, 0, 2), decimal.NewFromInt(80), decimal.Zero, decimal.NewFromInt(8000)),
	}
}

func mockResult(ticker string, totalReturn float64) TickerResult {
	return TickerResult{
		Ticker: ticker,
		Report: types.RiskReport{
			Ticker:        ticker,
			StartDate:     day0,
			EndDate:       day0.AddDate(0, 0, 2),
			InitialCash:   decimal.NewFromInt(10000),
			FinalEquity:   decimal.NewFromInt(8000),
			NetProfit:     decimal.NewFromInt(-2000),
			TotalReturn:   totalReturn,
			MaxDrawdown:   0.2,
			ValueAtRisk:   types.Unavailable(),
			VaRConfidence: 0.95,
			WinRate:       types.Available(0),
			TradeCount:    2,
		},
		Curve:     mockCurve(),
		Ledger:    mockLedger(),
		Decisions: types.DecisionStats{Buy: 1, Sell: 1, Total: 2},
	}
}

func mockBundle() *Bundle {
	corr := types.CorrelationMatrix{
		Tickers: []string{"AAPL", "MSFT"},
		Cells: [][]types.Metric{
			{types.Available(1), types.Unavailable()},
			{types.Unavailable(), types.Available(1)},
		},
	}
	return Assemble(
		Settings{InitialCash: decimal.NewFromInt(10000), LotPolicy: "whole", RepeatBuy: "ignore", VaRConfidence: 0.95},
		[]TickerResult{mockResult("MSFT", 0.1), mockResult("AAPL", -0.2)},
		[]TickerFailure{{Ticker: "ZZZ", Error: "no prices"}, {Ticker: "BAD", Error: "invalid input"}},
		corr,
	)
}

func TestAssemble_SortsAndCopies(t *testing.T) {
	results := []TickerResult{mockResult("MSFT", 0.1), mockResult("AAPL", -0.2)}
	corr := types.CorrelationMatrix{Tickers: []string{"AAPL"}, Cells: [][]types.Metric{{types.Available(1)}}}

	b := Assemble(Settings{}, results, []TickerFailure{{Ticker: "Z"}, {Ticker: "A"}}, corr)

	if b.Results[0].Ticker != "AAPL" || b.Results[1].Ticker != "MSFT" {
		t.Fatalf("results not sorted: %s, %s", b.Results[0].Ticker, b.Results[1].Ticker)
	}
	if b.Failures[0].Ticker != "A" {
		t.Fatalf("failures not sorted: %+v", b.Failures)
	}
	if b.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("run id not set")
	}

	results[0].Curve[0].TotalEquity = decimal.NewFromInt(-1)
	corr.Cells[0][0] = types.Unavailable()
	got, _ := b.Result("MSFT")
	if got.Curve[0].TotalEquity.IsNegative() {
		t.Fatal("bundle shares the caller's curve")
	}
	if !b.Correlation.Cells[0][0].Available {
		t.Fatal("bundle shares the caller's correlation matrix")
	}
	if _, ok := b.Result("GOOG"); ok {
		t.Fatal("unexpected result for GOOG")
	}
}

func TestWriteEquityCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEquityCSV(&buf, mockCurve()); err != nil {
		t.Fatalf("WriteEquityCSV() error = %v", err)
	}
	want := strings.Join([]string{
		"date,price,shares,cash,position_value,total_equity",
		"2024-01-02,100,100,0,10000,10000",
		"2024-01-03,90,100,0,9000,9000",
		"2024-01-04,80,0,8000,0,8000",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, mockLedger()); err != nil {
		t.Fatalf("WriteLedgerCSV() error = %v", err)
	}
	want := strings.Join([]string{
		"date,action,shares,price,value,cash_delta,realized_pnl",
		"2024-01-02,BUY,100,100,10000,-10000,",
		"2024-01-04,SELL,100,80,8000,8000,-2000",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, mockBundle()); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## AAPL",
		"## MSFT",
		"### Trade History",
		"| 2024-01-04 | SELL | 100 | 80.00 | 8000.00 | -2000.00 |",
		"## Performance Comparison",
		"## Return Correlation",
		"| AAPL | 1.00 | n/a |",
		"**VaR (95.00%):** n/a",
		"| BAD | invalid input |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintSummary(&buf, mockBundle()); err != nil {
		t.Fatalf("PrintSummary() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"AAPL", "MSFT", "-20.00%", "10.00%", "ZZZ: no prices", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestSaveBundle(t *testing.T) {
	b := mockBundle()
	dir := t.TempDir()

	runDir, err := SaveBundle(dir, b)
	if err != nil {
		t.Fatalf("SaveBundle() error = %v", err)
	}
	for _, name := range []string{bundleFile, markdownFile, "AAPL_equity.csv", "AAPL_ledger.csv", "MSFT_equity.csv", "MSFT_ledger.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(runDir, bundleFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadJSON(f)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.RunID != b.RunID || len(got.Results) != 2 {
		t.Fatalf("reloaded bundle %s with %d results", got.RunID, len(got.Results))
	}
	aapl, ok := got.Result("AAPL")
	if !ok {
		t.Fatal("AAPL missing from reloaded bundle")
	}
	if aapl.Report.ValueAtRisk.Available {
		t.Error("unavailable VaR came back available")
	}
	if !aapl.Ledger[1].RealizedPnL.Valid || aapl.Ledger[0].RealizedPnL.Valid {
		t.Error("realized pnl presence not preserved")
	}
}

func TestSafeName(t *testing.T) {
	if got := safeName("BRK/B"); got != "BRK_B" {
		t.Fatalf("safeName(BRK/B) = %s", got)
	}
	if got := safeName("^GSPC"); got != "_GSPC" {
		t.Fatalf("safeName(^GSPC) = %s", got)
	}
}
