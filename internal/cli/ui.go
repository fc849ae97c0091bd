package cli

import (
	"decisionbacktester/internal/store"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	failedStyle = cellStyle.
			Foreground(lipgloss.Color("#F59E0B"))
)

func renderRuns(runs []store.RunSummary) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID.String(),
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
			r.InitialCash.StringFixed(2),
			fmt.Sprintf("%s/%s", r.LotPolicy, r.RepeatBuy),
			fmt.Sprintf("%d", r.Tickers),
			fmt.Sprintf("%d", r.Failures),
			fmt.Sprintf("%.2f%%", r.AvgReturn*100),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers("Run", "Generated", "Cash", "Policy", "Tickers", "Failed", "Avg return").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && runs[row].Failures > 0 {
				return failedStyle
			}
			return cellStyle
		})
	return t.Render()
}
