package analysis

import "math"

// Strength labels a strong correlation pair.
type Strength string

const (
	Strong     Strength = "strong"
	VeryStrong Strength = "very_strong"
)

// CorrelationPair is one reported pair; Var1 precedes Var2 in column order.
type CorrelationPair struct {
	Var1        string   `json:"var1"`
	Var2        string   `json:"var2"`
	Correlation float64  `json:"correlation"`
	Strength    Strength `json:"strength"`
}

// FindStrong walks the upper triangle of m and returns every pair with
// |r| > threshold, labelled very_strong when |r| > VeryStrongCorrelation.
func FindStrong(m CorrelationMatrix, threshold float64) []CorrelationPair {
	out := []CorrelationPair{}
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			abs := math.Abs(r)
			if !(abs > threshold) {
				continue
			}
			p := CorrelationPair{Var1: m.Columns[i], Var2: m.Columns[j], Correlation: r, Strength: Strong}
			if abs > VeryStrongCorrelation {
				p.Strength = VeryStrong
			}
			out = append(out, p)
		}
	}
	return out
}
