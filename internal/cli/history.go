package cli

import (
	"decisionbacktester/internal/reporting"
	"decisionbacktester/internal/store"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded backtest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(a.cfg.ResultsDB)
			if err != nil {
				return fmt.Errorf("open results db: %w", err)
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list, 0 for all")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var ticker string
	cmd := &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Show the risk reports of a recorded run",
		Long: `Show the risk reports of a recorded run. With --ticker the stored equity
curve of that ticker is printed as CSV instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			s, err := store.Open(a.cfg.ResultsDB)
			if err != nil {
				return fmt.Errorf("open results db: %w", err)
			}
			defer s.Close()

			ctx := cmd.Context()
			if ticker != "" {
				curve, err := s.GetEquityCurve(ctx, runID, strings.ToUpper(ticker))
				if err != nil {
					return err
				}
				return reporting.WriteEquityCSV(cmd.OutOrStdout(), curve)
			}

			reports, err := s.GetReports(ctx, runID)
			if err != nil {
				return err
			}
			return reporting.PrintReports(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "Print the equity curve of this ticker as CSV")
	return cmd
}
