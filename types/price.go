package types

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type PricePoint struct {
	Date   time.Time       `json:"date"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume,omitempty"`
}

func NewPricePoint(date time.Time, close decimal.Decimal, volume int64) PricePoint {
	return PricePoint{
		Date:   Day(date),
		Close:  close,
		Volume: volume,
	}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
