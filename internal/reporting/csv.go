package reporting

import (
	"decisionbacktester/types"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type equityRow struct {
	Date          string `csv:"date"`
	Price         string `csv:"price"`
	Shares        string `csv:"shares"`
	Cash          string `csv:"cash"`
	PositionValue string `csv:"position_value"`
	TotalEquity   string `csv:"total_equity"`
}

// WriteEquityCSV writes one row per simulation date.
func WriteEquityCSV(w io.Writer, curve []types.EquityPoint) error {
	rows := make([]*equityRow, len(curve))
	for i, p := range curve {
		rows[i] = &equityRow{
			Date:          p.Date.Format(types.DateLayout),
			Price:         p.Price.String(),
			Shares:        p.Shares.String(),
			Cash:          p.Cash.String(),
			PositionValue: p.PositionValue.String(),
			TotalEquity:   p.TotalEquity.String(),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write equity csv: %w", err)
	}
	return nil
}

// WriteLedgerCSV writes the trade ledger. realized_pnl is empty on BUY rows.
func WriteLedgerCSV(w io.Writer, ledger []types.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date",
		"action",
		"shares",
		"price",
		"value",
		"cash_delta",
		"realized_pnl",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, entry := range ledger {
		if err := writeLedgerRow(cw, entry); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeLedgerRow(cw *csv.Writer, entry types.LedgerEntry) error {
	realized := ""
	if entry.RealizedPnL.Valid {
		realized = entry.RealizedPnL.Decimal.String()
	}
	record := []string{
		entry.Date.Format(types.DateLayout),
		string(entry.Action),
		entry.Shares.String(),
		entry.Price.String(),
		entry.Value().String(),
		entry.CashDelta.String(),
		realized,
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
