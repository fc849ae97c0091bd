package reporting

import (
	"decisionbacktester/types"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	gainStyle = cellStyle.
			Foreground(lipgloss.Color("#10B981"))

	lossStyle = cellStyle.
			Foreground(lipgloss.Color("#EF4444"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

// PrintSummary writes a terminal summary of the run: one row per ticker,
// the correlation matrix and any failures.
func PrintSummary(w io.Writer, b *Bundle) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Backtest %s", b.RunID)))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("initial cash %s, %s lots, repeat BUY %s, generated %s",
		b.Settings.InitialCash.StringFixed(2), b.Settings.LotPolicy, b.Settings.RepeatBuy,
		b.GeneratedAt.Format("2006-01-02 15:04:05"))))
	sb.WriteString("\n")

	if len(b.Results) > 0 {
		sb.WriteString(renderReports(b.Reports()))
		sb.WriteString("\n")
	}
	if len(b.Correlation.Tickers) > 1 {
		sb.WriteString(headerStyle.Render("Return correlation"))
		sb.WriteString("\n")
		sb.WriteString(renderCorrelation(b.Correlation))
		sb.WriteString("\n")
	}
	for _, f := range b.Failures {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", f.Ticker, f.Error)))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// PrintReports writes the comparison table alone, for runs loaded from the
// results store.
func PrintReports(w io.Writer, reports []types.RiskReport) error {
	_, err := io.WriteString(w, renderReports(reports)+"\n")
	return err
}

func renderReports(reports []types.RiskReport) string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.Ticker,
			r.FinalEquity.StringFixed(2),
			percent(r.TotalReturn),
			percent(r.AnnualizedReturn),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			percent(r.MaxDrawdown),
			metricPercent(r.WinRate),
			metricPercent(r.ValueAtRisk),
			fmt.Sprintf("%d", r.TradeCount),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("Ticker", "Final", "Return", "Annual", "Sharpe", "Max DD", "Win", "VaR", "Trades").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(reports) {
				if reports[row].TotalReturn > 0 {
					return gainStyle
				}
				if reports[row].TotalReturn < 0 {
					return lossStyle
				}
			}
			return cellStyle
		})
	return t.Render()
}

func renderCorrelation(m types.CorrelationMatrix) string {
	rows := make([][]string, len(m.Tickers))
	for i, ticker := range m.Tickers {
		row := []string{ticker}
		for j := range m.Tickers {
			row = append(row, correlationCell(m.Cells[i][j]))
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(append([]string{""}, m.Tickers...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
