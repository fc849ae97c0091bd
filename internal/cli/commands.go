package cli

import (
	"decisionbacktester/internal/config"
	"decisionbacktester/internal/logger"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X decisionbacktester/internal/cli.Version=...".
var Version = "dev"

type app struct {
	configPath string
	resultsDB  string
	logLevel   string
	cfg        *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "backtester",
		Short: "Backtest recorded trading decisions against historical prices",
		Long: `backtester replays BUY/HOLD/SELL decisions per ticker against daily closing
prices, then reports returns, risk metrics, trade statistics and the
correlation of daily returns across tickers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Shutdown(cmd.Context())
		},
	}

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.resultsDB, "results-db", "", "SQLite results database (overrides results_db)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (overrides log.level)")

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.resultsDB != "" {
		cfg.ResultsDB = a.resultsDB
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := logger.Init(cfg.LoggerConfig(), nil); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// The version needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtester %s\n", Version)
		},
	}
}
