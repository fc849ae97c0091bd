package types

type CorrelationMatrix struct {
	Tickers []string   `json:"tickers"`
	Cells   [][]Metric `json:"cells"`
}

func (m CorrelationMatrix) index(ticker string) int {
	for i, t := range m.Tickers {
		if t == ticker {
			return i
		}
	}
	return -1
}

// Get returns the correlation between a and b. The second result is false
// when either ticker is unknown or the pair had too little overlap.
func (m CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	cell := m.Cells[i][j]
	return cell.Value, cell.Available
}
