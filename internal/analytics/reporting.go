package analytics

import (
	"decisionbacktester/types"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CalculateReport derives the risk and performance statistics of one
// simulated ticker. It has no hidden state: the same inputs always give the
// same report.
func CalculateReport(
	ticker string,
	initialCash decimal.Decimal,
	curve []types.EquityPoint,
	ledger []types.LedgerEntry,
	cfg Config,
) types.RiskReport {
	report := types.RiskReport{
		Ticker:        ticker,
		InitialCash:   initialCash,
		FinalEquity:   initialCash,
		TradeCount:    len(ledger),
		VaRConfidence: cfg.VaRConfidence,
	}
	if len(curve) > 0 {
		report.StartDate = curve[0].Date
		report.EndDate = curve[len(curve)-1].Date
		report.FinalEquity = curve[len(curve)-1].TotalEquity
	}

	returns := returnValues(DailyReturns(curve))

	var wg sync.WaitGroup
	wg.Add(8)
	go func() {
		defer wg.Done()
		report.TotalReturn, report.AnnualizedReturn = calcReturns(initialCash, curve)
	}()
	go func() {
		defer wg.Done()
		report.SharpeRatio = calcSharpeRatio(returns, cfg.RiskFreeRate)
	}()
	go func() {
		defer wg.Done()
		report.SortinoRatio = calcSortinoRatio(returns, cfg.RiskFreeRate)
	}()
	go func() {
		defer wg.Done()
		report.Volatility = calcVolatility(returns)
	}()
	go func() {
		defer wg.Done()
		report.MaxDrawdown, report.MaxDrawdownDuration = calcDrawdownMetrics(initialCash, curve)
	}()
	go func() {
		defer wg.Done()
		report.ValueAtRisk, report.ExpectedShortfall = calcTailRisk(returns, cfg.VaRConfidence)
	}()
	go func() {
		defer wg.Done()
		report.NetProfit, report.WinRate = calcRealizedPnL(ledger)
	}()
	go func() {
		defer wg.Done()
		report.AvgWin, report.AvgLoss, report.ProfitFactor, report.MaxConsecutiveLosses = calcWinLossMetrics(ledger)
	}()
	wg.Wait()

	return report
}

// DailyReturns are the period-over-period returns of the equity curve. The
// first point has no return and is excluded.
func DailyReturns(curve []types.EquityPoint) []types.ReturnPoint {
	if len(curve) < 2 {
		return nil
	}
	one := decimal.NewFromInt(1)
	returns := make([]types.ReturnPoint, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalEquity
		if !prev.IsPositive() {
			continue
		}
		r := curve[i].TotalEquity.Div(prev).Sub(one)
		returns = append(returns, types.ReturnPoint{
			Date:   curve[i].Date,
			Return: r.InexactFloat64(),
		})
	}
	return returns
}

func returnValues(points []types.ReturnPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Return
	}
	return out
}

func calcReturns(initialCash decimal.Decimal, curve []types.EquityPoint) (float64, float64) {
	if len(curve) == 0 || !initialCash.IsPositive() {
		return 0, 0
	}

	first := curve[0]
	last := curve[len(curve)-1]
	total := last.TotalEquity.Div(initialCash).Sub(decimal.NewFromInt(1)).InexactFloat64()

	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return total, total
	}
	growth := 1 + total
	if growth <= 0 {
		return total, -1
	}
	return total, math.Pow(growth, daysPerYear/days) - 1
}

// dailyRiskFree converts an annual rate to a per-trading-day rate.
func dailyRiskFree(annual float64) float64 {
	return math.Pow(1+annual, 1.0/tradingDaysPerYear) - 1
}

func excessReturns(returns []float64, annualRiskFree float64) []float64 {
	rf := dailyRiskFree(annualRiskFree)
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rf
	}
	return excess
}

func calcSharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, annualRiskFree)
	std := sampleStdDev(excess)
	if std == 0 {
		return 0
	}
	return mean(excess) / std * math.Sqrt(tradingDaysPerYear)
}

func calcSortinoRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, annualRiskFree)
	var downsideSum float64
	for _, x := range excess {
		if x < 0 {
			downsideSum += x * x
		}
	}
	downside := math.Sqrt(downsideSum / float64(len(excess)))
	if downside == 0 {
		return 0
	}
	return mean(excess) / downside * math.Sqrt(tradingDaysPerYear)
}

func calcVolatility(returns []float64) float64 {
	return sampleStdDev(returns) * math.Sqrt(tradingDaysPerYear)
}

// calcDrawdownMetrics returns the largest peak-to-trough decline as a fraction
// of the peak, and how long after the peak the trough came. The running peak
// starts at the initial cash.
func calcDrawdownMetrics(initialCash decimal.Decimal, curve []types.EquityPoint) (float64, time.Duration) {
	if len(curve) == 0 || !initialCash.IsPositive() {
		return 0, 0
	}

	peak := initialCash
	peakTime := curve[0].Date
	maxDD := decimal.Zero
	var maxDDDuration time.Duration

	for _, point := range curve {
		equity := point.TotalEquity
		if equity.GreaterThan(peak) {
			peak = equity
			peakTime = point.Date
			continue
		}
		dd := peak.Sub(equity).Div(peak)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
			maxDDDuration = point.Date.Sub(peakTime)
		}
	}
	return maxDD.InexactFloat64(), maxDDDuration
}

// calcTailRisk returns historical VaR and expected shortfall at confidence,
// both as positive loss magnitudes.
func calcTailRisk(returns []float64, confidence float64) (types.Metric, types.Metric) {
	if len(returns) < minVaRSamples {
		return types.Unavailable(), types.Unavailable()
	}

	cutoff := percentile(returns, 1-confidence)

	var tailSum float64
	var tailCount int
	for _, r := range returns {
		if r <= cutoff {
			tailSum += r
			tailCount++
		}
	}
	shortfall := -tailSum / float64(tailCount)

	return types.Available(math.Max(0, -cutoff)), types.Available(math.Max(0, shortfall))
}

// calcRealizedPnL sums realized PnL over closing entries. The win rate is
// unavailable, with value 0, when nothing was sold.
func calcRealizedPnL(ledger []types.LedgerEntry) (decimal.Decimal, types.Metric) {

	net := decimal.Zero
	closes, wins := 0, 0
	for _, entry := range ledger {
		if !entry.IsClose() {
			continue
		}
		closes++
		pnl := entry.RealizedPnL.Decimal
		net = net.Add(pnl)
		if pnl.IsPositive() {
			wins++
		}
	}
	if closes == 0 {
		return net, types.Unavailable()
	}
	return net, types.Available(float64(wins) / float64(closes))
}

func calcWinLossMetrics(ledger []types.LedgerEntry) (decimal.Decimal, decimal.Decimal, types.Metric, int) {

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // absolute loss amounts
	winCount, lossCount := 0, 0
	maxLossStreak, currentStreak := 0, 0

	for _, entry := range ledger {
		if !entry.IsClose() {
			continue
		}
		pnl := entry.RealizedPnL.Decimal
		switch {
		case pnl.IsPositive():
			sumWins = sumWins.Add(pnl)
			winCount++
			currentStreak = 0
		case pnl.IsNegative():
			sumLosses = sumLosses.Add(pnl.Abs())
			lossCount++
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		default:
			currentStreak = 0
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}

	profitFactor := types.Unavailable()
	if sumLosses.IsPositive() {
		profitFactor = types.Available(sumWins.Div(sumLosses).InexactFloat64())
	}

	return avgWin, avgLoss, profitFactor, maxLossStreak
}
