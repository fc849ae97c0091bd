package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunSummary is one row of the run history.
type RunSummary struct {
	ID          uuid.UUID
	GeneratedAt time.Time
	InitialCash decimal.Decimal
	LotPolicy   string
	RepeatBuy   string
	Tickers     int
	Failures    int
	AvgReturn   float64
}
