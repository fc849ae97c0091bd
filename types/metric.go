package types

import (
	"encoding/json"
	"strconv"
)

// Metric is a statistic that may be unavailable, for instance when there are
// too few samples. Unavailable metrics encode as JSON null.
type Metric struct {
	Value     float64
	Available bool
}

func Available(v float64) Metric {
	return Metric{Value: v, Available: true}
}

func Unavailable() Metric {
	return Metric{}
}

func (m Metric) String() string {
	if !m.Available {
		return "n/a"
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Available {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Unavailable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Available(v)
	return nil
}
