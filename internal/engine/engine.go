package engine

import (
	"context"
	"decisionbacktester/internal/logger"
	"decisionbacktester/internal/reporting"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Engine runs a batch of independent ticker simulations and joins them into
// one bundle.
type Engine struct {
	db  dataStore
	cfg *Config

	newProgressBar func(max int) *progressbar.ProgressBar
}

func NewEngine(db dataStore, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		db:  db,
		cfg: cfg,
	}
	e.newProgressBar = e.initProgressBar
	return e
}

// Run loads every ticker, then simulates them concurrently. A ticker that
// fails to load or simulate is reported in Bundle.Failures and does not stop
// the others. Run only returns an error for an invalid configuration or a
// cancelled context.
func (e *Engine) Run(ctx context.Context, tickers []string) (*reporting.Bundle, error) {
	if err := e.cfg.Portfolio.validate(); err != nil {
		return nil, err
	}

	inputs, failures := e.loadData(ctx, uniqueTickers(tickers))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.run(ctx, inputs, failures)
}

// RunInputs simulates already loaded inputs.
func (e *Engine) RunInputs(ctx context.Context, inputs []TickerInput) (*reporting.Bundle, error) {
	if err := e.cfg.Portfolio.validate(); err != nil {
		return nil, err
	}
	return e.run(ctx, uniqueInputs(inputs), nil)
}

// uniqueTickers drops repeated tickers, keeping the first occurrence.
func uniqueTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func uniqueInputs(inputs []TickerInput) []TickerInput {
	seen := make(map[string]struct{}, len(inputs))
	out := make([]TickerInput, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.Ticker]; ok {
			continue
		}
		seen[in.Ticker] = struct{}{}
		out = append(out, in)
	}
	return out
}

func (e *Engine) loadData(ctx context.Context, tickers []string) ([]TickerInput, []reporting.TickerFailure) {
	inputs := make([]TickerInput, 0, len(tickers))
	var failures []reporting.TickerFailure

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		input, err := LoadTickerInput(ctx, e.db, ticker)
		if err != nil {
			logger.Error(ctx, "ticker load failed", "ticker", ticker, "error", err)
			failures = append(failures, reporting.TickerFailure{Ticker: ticker, Error: err.Error()})
			continue
		}
		inputs = append(inputs, input)
	}
	return inputs, failures
}

func (e *Engine) run(ctx context.Context, inputs []TickerInput, failures []reporting.TickerFailure) (*reporting.Bundle, error) {
	// Each worker writes only its own slot until the join below.
	results := make([]*reporting.TickerResult, len(inputs))
	errs := make([]error, len(inputs))

	bar := e.newProgressBar(len(inputs))
	defer func() { _ = bar.Finish() }()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workerCount())

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = e.simulateTicker(gctx, input)
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completed := make([]reporting.TickerResult, 0, len(inputs))
	for i, input := range inputs {
		if errs[i] != nil {
			failures = append(failures, reporting.TickerFailure{Ticker: input.Ticker, Error: errs[i].Error()})
			continue
		}
		completed = append(completed, *results[i])
	}

	bundle := reporting.Assemble(e.settings(), completed, failures, correlate(completed))
	logger.Info(ctx, "backtest completed",
		"run_id", bundle.RunID.String(),
		"tickers", len(completed),
		"failures", len(bundle.Failures),
	)
	return bundle, nil
}

func (e *Engine) simulateTicker(ctx context.Context, input TickerInput) (*reporting.TickerResult, error) {
	op := logger.StartOperation(ctx, "simulate_ticker", "ticker", input.Ticker)
	ctx = op.Context()

	sim, err := Simulate(input.Ticker, input.Prices, input.Decisions, e.cfg.Portfolio)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}
	for _, s := range sim.Skipped {
		logger.SkippedDecision(ctx, input.Ticker, s.Decision.Date, string(s.Decision.Action), s.Reason)
	}

	result := generateResult(sim, e.cfg)
	op.End("trades", result.Report.TradeCount, "skipped", len(sim.Skipped))
	return &result, nil
}

func (e *Engine) initProgressBar(max int) *progressbar.ProgressBar {
	if !e.cfg.ShowProgress {
		return progressbar.DefaultSilent(int64(max))
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("Simulating %d tickers...", max)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
