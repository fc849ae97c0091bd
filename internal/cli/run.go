package cli

import (
	"context"
	"decisionbacktester/internal/config"
	"decisionbacktester/internal/engine"
	"decisionbacktester/internal/logger"
	"decisionbacktester/internal/reporting"
	"decisionbacktester/internal/repository"
	"decisionbacktester/internal/store"
	"decisionbacktester/types"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errNoResults = errors.New("no ticker completed")

type source interface {
	GetPriceSeries(ctx context.Context, ticker string) ([]types.PricePoint, error)
	GetDecisions(ctx context.Context, ticker string) ([]types.Decision, error)
}

type runOptions struct {
	source      string
	dataDir     string
	outDir      string
	noStore     bool
	noProgress  bool
	migrate     bool
	workers     int
	databaseURL string
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [TICKER...]",
		Short: "Backtest one or more tickers",
		Long: `Backtest the decisions of each ticker against its price series.
Without tickers every ticker found in the CSV data directory is run.
Example: backtester run AAPL MSFT --source csv --data-dir ./data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.apply(cmd, a.cfg); err != nil {
				return err
			}
			return runBacktest(cmd, a.cfg, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Input source: csv or postgres (overrides source.kind)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "CSV data directory (overrides source.dir)")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (overrides source.database_url)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for exported reports (overrides output_dir)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent simulations, 0 for one per CPU")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not record the run in the results database")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Hide the progress bar")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Create the PostgreSQL tables before loading")

	return cmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Kind = strings.ToLower(o.source)
	}
	if flags.Changed("data-dir") {
		cfg.Source.Dir = o.dataDir
	}
	if flags.Changed("database-url") {
		cfg.Source.DatabaseURL = o.databaseURL
	}
	if flags.Changed("out") {
		cfg.OutputDir = o.outDir
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if o.noProgress {
		cfg.ShowProgress = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return nil
}

func runBacktest(cmd *cobra.Command, cfg *config.Config, opts *runOptions, args []string) error {
	ctx := cmd.Context()

	src, tickers, closeSource, err := openSource(ctx, cfg, opts.migrate, args)
	if err != nil {
		return err
	}
	defer closeSource()
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given and none found in %s", cfg.Source.Dir)
	}

	logger.Info(ctx, "starting backtest", "tickers", len(tickers), "source", cfg.Source.Kind)
	eng := engine.NewEngine(src, cfg.EngineConfig())
	bundle, err := eng.Run(ctx, tickers)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := reporting.PrintSummary(out, bundle); err != nil {
		return err
	}

	dir, err := reporting.SaveBundle(cfg.OutputDir, bundle)
	if err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	fmt.Fprintf(out, "Reports saved to %s\n", dir)

	if !opts.noStore {
		if err := recordRun(ctx, cfg.ResultsDB, bundle); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run %s recorded in %s\n", bundle.RunID, cfg.ResultsDB)
	}

	if len(bundle.Results) == 0 {
		return errNoResults
	}
	return nil
}

// openSource returns the input source with the tickers to run. Tickers
// default to the CSV data directory listing.
func openSource(ctx context.Context, cfg *config.Config, migrate bool, args []string) (source, []string, func(), error) {
	tickers := make([]string, 0, len(args))
	for _, t := range args {
		tickers = append(tickers, strings.ToUpper(strings.TrimSpace(t)))
	}

	switch cfg.Source.Kind {
	case config.SourcePostgres:
		if cfg.Source.DatabaseURL == "" {
			return nil, nil, nil, fmt.Errorf("%w: source.database_url is required for postgres", config.ErrInvalidConfig)
		}
		db, err := repository.NewDatabase(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		return db, tickers, db.Close, nil
	default:
		csvSrc := repository.NewCSVSource(cfg.Source.Dir)
		if len(tickers) == 0 {
			found, err := csvSrc.Tickers()
			if err != nil {
				return nil, nil, nil, err
			}
			tickers = found
		}
		return csvSrc, tickers, func() {}, nil
	}
}

func recordRun(ctx context.Context, path string, b *reporting.Bundle) error {
	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer s.Close()

	if err := s.SaveRun(ctx, b); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
