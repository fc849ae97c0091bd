package reporting

import (
	"decisionbacktester/types"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteMarkdown renders a per-ticker backtest report followed by a comparison
// table and the correlation matrix.
func WriteMarkdown(w io.Writer, b *Bundle) error {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	fmt.Fprintf(&sb, "**Run:** %s\n\n", b.RunID)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", b.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Initial Capital:** %s | **Lot Policy:** %s | **Repeat BUY:** %s | **Risk Free Rate:** %s | **VaR Confidence:** %s\n\n",
		b.Settings.InitialCash.StringFixed(2), b.Settings.LotPolicy, b.Settings.RepeatBuy,
		percent(b.Settings.RiskFreeRate), percent(b.Settings.VaRConfidence))

	for _, r := range b.Results {
		writeTickerMarkdown(&sb, r)
	}

	if len(b.Results) > 1 {
		writeComparisonMarkdown(&sb, b.Results)
		writeCorrelationMarkdown(&sb, b.Correlation)
	}

	if len(b.Failures) > 0 {
		sb.WriteString("## Failed Tickers\n\n")
		sb.WriteString("| Ticker | Error |\n")
		sb.WriteString("|--------|-------|\n")
		for _, f := range b.Failures {
			fmt.Fprintf(&sb, "| %s | %s |\n", f.Ticker, escapeCell(f.Error))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTickerMarkdown(sb *strings.Builder, r TickerResult) {
	rep := r.Report
	fmt.Fprintf(sb, "## %s\n\n", r.Ticker)
	fmt.Fprintf(sb, "%s to %s\n\n", rep.StartDate.Format(types.DateLayout), rep.EndDate.Format(types.DateLayout))

	sb.WriteString("### Strategy Performance\n\n")
	fmt.Fprintf(sb, "- **Initial Capital:** %s\n", rep.InitialCash.StringFixed(2))
	fmt.Fprintf(sb, "- **Final Value:** %s\n", rep.FinalEquity.StringFixed(2))
	fmt.Fprintf(sb, "- **Total Return:** %s\n", percent(rep.TotalReturn))
	fmt.Fprintf(sb, "- **Annualized Return:** %s\n", percent(rep.AnnualizedReturn))
	fmt.Fprintf(sb, "- **Realized PnL:** %s\n", rep.NetProfit.StringFixed(2))
	fmt.Fprintf(sb, "- **Number of Trades:** %d\n\n", rep.TradeCount)

	sb.WriteString("### Risk Metrics\n\n")
	fmt.Fprintf(sb, "- **Sharpe Ratio:** %.2f\n", rep.SharpeRatio)
	fmt.Fprintf(sb, "- **Sortino Ratio:** %.2f\n", rep.SortinoRatio)
	fmt.Fprintf(sb, "- **Volatility:** %s\n", percent(rep.Volatility))
	fmt.Fprintf(sb, "- **Max Drawdown:** %s (%s)\n", percent(rep.MaxDrawdown), days(rep.MaxDrawdownDuration))
	fmt.Fprintf(sb, "- **VaR (%s):** %s\n", percent(rep.VaRConfidence), metricPercent(rep.ValueAtRisk))
	fmt.Fprintf(sb, "- **Expected Shortfall:** %s\n", metricPercent(rep.ExpectedShortfall))
	fmt.Fprintf(sb, "- **Win Rate:** %s\n", metricPercent(rep.WinRate))
	fmt.Fprintf(sb, "- **Profit Factor:** %s\n", rep.ProfitFactor)
	fmt.Fprintf(sb, "- **Max Consecutive Losses:** %d\n\n", rep.MaxConsecutiveLosses)

	sb.WriteString("### Decision Analysis\n\n")
	fmt.Fprintf(sb, "| BUY | HOLD | SELL | Total |\n|-----|------|------|-------|\n| %d | %d | %d | %d |\n\n",
		r.Decisions.Buy, r.Decisions.Hold, r.Decisions.Sell, r.Decisions.Total)

	if len(r.Ledger) > 0 {
		sb.WriteString("### Trade History\n\n")
		sb.WriteString("| Date | Action | Shares | Price | Value | Realized PnL |\n")
		sb.WriteString("|------|--------|--------|-------|-------|--------------|\n")
		for _, e := range r.Ledger {
			realized := ""
			if e.RealizedPnL.Valid {
				realized = e.RealizedPnL.Decimal.StringFixed(2)
			}
			fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s |\n",
				e.Date.Format(types.DateLayout), e.Action, e.Shares,
				e.Price.StringFixed(2), e.Value().StringFixed(2), realized)
		}
		sb.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		sb.WriteString("### Skipped Decisions\n\n")
		for _, s := range r.Skipped {
			fmt.Fprintf(sb, "- %s %s: %s\n", s.Decision.Date.Format(types.DateLayout), s.Decision.Action, s.Reason)
		}
		sb.WriteString("\n")
	}
}

func writeComparisonMarkdown(sb *strings.Builder, results []TickerResult) {
	sb.WriteString("## Performance Comparison\n\n")
	sb.WriteString("| Ticker | Total Return | Annualized | Sharpe | Max Drawdown | Win Rate | VaR | Trades |\n")
	sb.WriteString("|--------|--------------|------------|--------|--------------|----------|-----|--------|\n")
	for _, r := range results {
		rep := r.Report
		fmt.Fprintf(sb, "| %s | %s | %s | %.2f | %s | %s | %s | %d |\n",
			r.Ticker, percent(rep.TotalReturn), percent(rep.AnnualizedReturn), rep.SharpeRatio,
			percent(rep.MaxDrawdown), metricPercent(rep.WinRate), metricPercent(rep.ValueAtRisk), rep.TradeCount)
	}
	sb.WriteString("\n")
}

func writeCorrelationMarkdown(sb *strings.Builder, m types.CorrelationMatrix) {
	if len(m.Tickers) == 0 {
		return
	}
	sb.WriteString("## Return Correlation\n\n")
	sb.WriteString("| |")
	for _, t := range m.Tickers {
		fmt.Fprintf(sb, " %s |", t)
	}
	sb.WriteString("\n|---|")
	sb.WriteString(strings.Repeat("---|", len(m.Tickers)))
	sb.WriteString("\n")
	for i, t := range m.Tickers {
		fmt.Fprintf(sb, "| %s |", t)
		for j := range m.Tickers {
			fmt.Fprintf(sb, " %s |", correlationCell(m.Cells[i][j]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func correlationCell(m types.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", m.Value)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func metricPercent(m types.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return percent(m.Value)
}

func days(d time.Duration) string {
	n := int(d / (24 * time.Hour))
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
