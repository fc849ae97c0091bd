package analytics

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365
	// minVaRSamples is the number of daily returns required before tail risk is reported.
	minVaRSamples = 20
)

const DefaultVaRConfidence = 0.95

type Config struct {
	// RiskFreeRate is annual and is converted to a daily rate for Sharpe and Sortino.
	RiskFreeRate  float64
	VaRConfidence float64
}

func NewConfig(riskFreeRate, varConfidence float64) Config {
	if varConfidence <= 0 || varConfidence >= 1 {
		varConfidence = DefaultVaRConfidence
	}
	return Config{
		RiskFreeRate:  riskFreeRate,
		VaRConfidence: varConfidence,
	}
}

func DefaultConfig() Config {
	return NewConfig(0, DefaultVaRConfidence)
}
