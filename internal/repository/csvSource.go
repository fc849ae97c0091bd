package repository

import (
	"context"
	"decisionbacktester/types"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const (
	pricesFile    = "prices.csv"
	decisionsFile = "decisions.csv"
)

// CSVSource reads inputs from a directory with one sub directory per ticker:
//
//	<dir>/<TICKER>/prices.csv     date,close[,volume]
//	<dir>/<TICKER>/decisions.csv  date,action[,size][,confidence]
type CSVSource struct {
	dir string
}

type priceRecord struct {
	Date   string `csv:"date"`
	Close  string `csv:"close"`
	Volume string `csv:"volume"`
}

type decisionRecord struct {
	Date       string `csv:"date"`
	Action     string `csv:"action"`
	Size       string `csv:"size"`
	Confidence string `csv:"confidence"`
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Tickers lists the sub directories that hold both input files.
func (s *CSVSource) Tickers() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var tickers []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if fileExists(filepath.Join(s.dir, e.Name(), pricesFile)) && fileExists(filepath.Join(s.dir, e.Name(), decisionsFile)) {
			tickers = append(tickers, e.Name())
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *CSVSource) GetPriceSeries(ctx context.Context, ticker string) ([]types.PricePoint, error) {
	var records []*priceRecord
	if err := s.readFile(ticker, pricesFile, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ticker %s %w", ticker, ErrNoPrices)
	}

	prices := make([]types.PricePoint, 0, len(records))
	for i, r := range records {
		p, err := r.toPricePoint()
		if err != nil {
			return nil, fmt.Errorf("%s %s row %d: %w", ticker, pricesFile, i+2, err)
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func (s *CSVSource) GetDecisions(ctx context.Context, ticker string) ([]types.Decision, error) {
	var records []*decisionRecord
	if err := s.readFile(ticker, decisionsFile, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ticker %s %w", ticker, ErrNoDecisions)
	}

	decisions := make([]types.Decision, 0, len(records))
	for i, r := range records {
		d, err := r.toDecision()
		if err != nil {
			return nil, fmt.Errorf("%s %s row %d: %w", ticker, decisionsFile, i+2, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func (s *CSVSource) readFile(ticker, name string, out any) error {
	path := filepath.Join(s.dir, ticker, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ticker %s %w: missing %s", ticker, ErrTickerNotFound, name)
		}
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (r priceRecord) toPricePoint() (types.PricePoint, error) {
	date, err := types.ParseDay(strings.TrimSpace(r.Date))
	if err != nil {
		return types.PricePoint{}, fmt.Errorf("date: %w", err)
	}
	closePrice, err := decimal.NewFromString(strings.TrimSpace(r.Close))
	if err != nil {
		return types.PricePoint{}, fmt.Errorf("close: %w", err)
	}
	var volume int64
	if v := strings.TrimSpace(r.Volume); v != "" {
		volume, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return types.PricePoint{}, fmt.Errorf("volume: %w", err)
		}
	}
	return types.NewPricePoint(date, closePrice, volume), nil
}

func (r decisionRecord) toDecision() (types.Decision, error) {
	date, err := types.ParseDay(strings.TrimSpace(r.Date))
	if err != nil {
		return types.Decision{}, fmt.Errorf("date: %w", err)
	}
	action, err := types.ParseAction(r.Action)
	if err != nil {
		return types.Decision{}, err
	}
	size := decimal.Zero
	if v := strings.TrimSpace(r.Size); v != "" {
		size, err = decimal.NewFromString(v)
		if err != nil {
			return types.Decision{}, fmt.Errorf("size: %w", err)
		}
	}
	d := types.NewDecision(date, action, size)
	if v := strings.TrimSpace(r.Confidence); v != "" {
		d.Confidence, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return types.Decision{}, fmt.Errorf("confidence: %w", err)
		}
	}
	return d, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
