package engine

import (
	"decisionbacktester/internal/analytics"
	"decisionbacktester/internal/reporting"
	"decisionbacktester/types"
)

// generateResult turns a finished simulation into its published result.
func generateResult(sim *Simulation, cfg *Config) reporting.TickerResult {
	return reporting.TickerResult{
		Ticker:    sim.Ticker,
		Report:    analytics.CalculateReport(sim.Ticker, sim.InitialCash, sim.Curve, sim.Ledger, cfg.Risk),
		Curve:     sim.Curve,
		Ledger:    sim.Ledger,
		Position:  sim.Position,
		Skipped:   sim.Skipped,
		Decisions: sim.Decisions,
	}
}

// correlate runs after every curve is complete.
func correlate(results []reporting.TickerResult) types.CorrelationMatrix {
	curves := make(map[string][]types.EquityPoint, len(results))
	for _, r := range results {
		curves[r.Ticker] = r.Curve
	}
	return analytics.CorrelateCurves(curves)
}

func (e *Engine) settings() reporting.Settings {
	return reporting.Settings{
		InitialCash:   e.cfg.Portfolio.InitialCash(),
		LotPolicy:     string(e.cfg.Portfolio.LotPolicy()),
		RepeatBuy:     string(e.cfg.Portfolio.RepeatBuy()),
		RiskFreeRate:  e.cfg.Risk.RiskFreeRate,
		VaRConfidence: e.cfg.Risk.VaRConfidence,
	}
}
