package analytics

import (
	"decisionbacktester/types"
	"sort"
	"time"
)

// minOverlap is the number of shared return dates a pair needs before its
// correlation is defined.
const minOverlap = 2

// CorrelateCurves correlates the daily returns of completed equity curves.
func CorrelateCurves(curves map[string][]types.EquityPoint) types.CorrelationMatrix {
	series := make(map[string][]types.ReturnPoint, len(curves))
	for ticker, curve := range curves {
		series[ticker] = DailyReturns(curve)
	}
	return Correlate(series)
}

// Correlate computes the pairwise Pearson correlation of return series on the
// intersection of their dates. Pairs with too little overlap, or with a flat
// series, are left unavailable. The diagonal is always 1.
func Correlate(series map[string][]types.ReturnPoint) types.CorrelationMatrix {
	tickers := make([]string, 0, len(series))
	for ticker := range series {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	byDate := make([]map[time.Time]float64, len(tickers))
	for i, ticker := range tickers {
		m := make(map[time.Time]float64, len(series[ticker]))
		for _, p := range series[ticker] {
			m[p.Date] = p.Return
		}
		byDate[i] = m
	}

	cells := make([][]types.Metric, len(tickers))
	for i := range cells {
		cells[i] = make([]types.Metric, len(tickers))
		cells[i][i] = types.Available(1)
	}

	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			xs, ys := alignReturns(series[tickers[i]], byDate[j])
			if len(xs) < minOverlap {
				continue
			}
			if r, ok := pearson(xs, ys); ok {
				cells[i][j] = types.Available(r)
				cells[j][i] = types.Available(r)
			}
		}
	}

	return types.CorrelationMatrix{Tickers: tickers, Cells: cells}
}

// alignReturns pairs each point of a with the return b has on the same date.
func alignReturns(a []types.ReturnPoint, b map[time.Time]float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for _, p := range a {
		if r, ok := b[p.Date]; ok {
			xs = append(xs, p.Return)
			ys = append(ys, r)
		}
	}
	return xs, ys
}
