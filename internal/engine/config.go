package engine

import (
	"decisionbacktester/internal/analytics"
	"fmt"
	"runtime"

	"github.com/shopspring/decimal"
)

type LotPolicy string

const (
	LotWhole      LotPolicy = "whole"
	LotFractional LotPolicy = "fractional"
)

// RepeatBuyPolicy decides what a BUY does while a position is already open.
type RepeatBuyPolicy string

const (
	RepeatBuyIgnore  RepeatBuyPolicy = "ignore"
	RepeatBuyScaleIn RepeatBuyPolicy = "scale_in"
)

// fractionalDecimals is the share precision used by the fractional lot policy.
const fractionalDecimals = 8

var DefaultInitialCash = decimal.NewFromInt(10000)

type PortfolioConfig struct {
	initialCash decimal.Decimal
	lotPolicy   LotPolicy
	repeatBuy   RepeatBuyPolicy
}

func NewPortfolioConfig(initialCash decimal.Decimal, lotPolicy LotPolicy, repeatBuy RepeatBuyPolicy) PortfolioConfig {
	if lotPolicy == "" {
		lotPolicy = LotWhole
	}
	if repeatBuy == "" {
		repeatBuy = RepeatBuyIgnore
	}
	return PortfolioConfig{
		initialCash: initialCash,
		lotPolicy:   lotPolicy,
		repeatBuy:   repeatBuy,
	}
}

func DefaultPortfolioConfig() PortfolioConfig {
	return NewPortfolioConfig(DefaultInitialCash, LotWhole, RepeatBuyIgnore)
}

func (c PortfolioConfig) InitialCash() decimal.Decimal { return c.initialCash }
func (c PortfolioConfig) LotPolicy() LotPolicy         { return c.lotPolicy }
func (c PortfolioConfig) RepeatBuy() RepeatBuyPolicy   { return c.repeatBuy }

func (c PortfolioConfig) validate() error {
	if !c.initialCash.IsPositive() {
		return fmt.Errorf("%w: initial cash must be positive, got %s", ErrInvalidInput, c.initialCash)
	}
	switch c.lotPolicy {
	case LotWhole, LotFractional:
	default:
		return fmt.Errorf("%w: unknown lot policy %q", ErrInvalidInput, c.lotPolicy)
	}
	switch c.repeatBuy {
	case RepeatBuyIgnore, RepeatBuyScaleIn:
	default:
		return fmt.Errorf("%w: unknown repeat buy policy %q", ErrInvalidInput, c.repeatBuy)
	}
	return nil
}

type Config struct {
	Portfolio PortfolioConfig
	Risk      analytics.Config
	// Workers bounds the number of tickers simulated at once, 0 means one per CPU.
	Workers      int
	ShowProgress bool
}

func NewConfig(portfolio PortfolioConfig, risk analytics.Config, workers int, showProgress bool) *Config {
	return &Config{
		Portfolio:    portfolio,
		Risk:         risk,
		Workers:      workers,
		ShowProgress: showProgress,
	}
}

func (c *Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func DefaultConfig() *Config {
	return NewConfig(DefaultPortfolioConfig(), analytics.DefaultConfig(), 0, false)
}
