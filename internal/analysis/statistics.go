package analysis

import (
	"encoding/json"
	"sort"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Statistics is the descriptive-statistics section of a report.
type Statistics struct {
	Basic        BasicStats                    `json:"basic"`
	Numeric      NumericStats                  `json:"numeric"`
	Categorical  map[string]CategoricalSummary `json:"categorical"`
	Correlations Correlations                  `json:"correlations"`
	DataQuality  QualitySignals                `json:"data_quality"`
}

// BasicStats describes the dataset shape and per-column nulls.
type BasicStats struct {
	Shape           [2]int             `json:"shape"`
	MemoryUsage     int64              `json:"memory_usage"`
	DTypes          map[string]string  `json:"dtypes"`
	NullCounts      map[string]int     `json:"null_counts"`
	NullPercentages map[string]float64 `json:"null_percentages"`
}

// NumericStats holds per-column summaries keyed by column name. All maps are
// empty when there are no numeric columns.
type NumericStats struct {
	Descriptive map[string]Descriptive `json:"descriptive,omitempty"`
	Skewness    map[string]float64     `json:"skewness,omitempty"`
	Kurtosis    map[string]float64     `json:"kurtosis,omitempty"`
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary describes one categorical column.
type CategoricalSummary struct {
	UniqueCount           int          `json:"unique_count"`
	MostFrequent          []ValueCount `json:"most_frequent"`
	FrequencyDistribution []ValueCount `json:"frequency_distribution"`
}

// CorrelationMatrix is a dense, symmetric Pearson matrix over numeric columns.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlations is the correlation section. It encodes as {} when fewer than
// two numeric columns exist.
type Correlations struct {
	Columns []string          `json:"columns,omitempty"`
	Matrix  [][]float64       `json:"matrix,omitempty"`
	Strong  []CorrelationPair `json:"strong_correlations,omitempty"`
}

// MarshalJSON always emits strong_correlations alongside a matrix.
func (c Correlations) MarshalJSON() ([]byte, error) {
	if len(c.Columns) < 2 {
		return []byte("{}"), nil
	}
	strong := c.Strong
	if strong == nil {
		strong = []CorrelationPair{}
	}
	return json.Marshal(struct {
		Columns []string          `json:"columns"`
		Matrix  [][]float64       `json:"matrix"`
		Strong  []CorrelationPair `json:"strong_correlations"`
	}{c.Columns, c.Matrix, strong})
}

// ComputeStatistics computes basic, numeric, categorical and correlation
// statistics and the data-quality signals. Empty column sets yield empty
// sections, never an error.
func ComputeStatistics(ds *dataset.Dataset, cols Columns, th Thresholds) *Statistics {
	st := &Statistics{
		Basic:       basicStats(ds),
		Categorical: map[string]CategoricalSummary{},
		DataQuality: ScoreQuality(ds, cols, th),
	}
	if len(cols.Numeric) > 0 {
		st.Numeric = NumericStats{
			Descriptive: make(map[string]Descriptive, len(cols.Numeric)),
			Skewness:    make(map[string]float64, len(cols.Numeric)),
			Kurtosis:    make(map[string]float64, len(cols.Numeric)),
		}
		for _, c := range cols.Numeric {
			vals := c.Floats()
			st.Numeric.Descriptive[c.Name] = describe(vals)
			st.Numeric.Skewness[c.Name] = skewness(vals)
			st.Numeric.Kurtosis[c.Name] = kurtosis(vals)
		}
	}
	if len(cols.Numeric) > 1 {
		m := PearsonMatrix(cols.Numeric)
		st.Correlations = Correlations{
			Columns: m.Columns,
			Matrix:  m.Values,
			Strong:  FindStrong(m, th.StrongCorrelation),
		}
	}
	for _, c := range cols.Categorical {
		counts := valueCounts(c)
		st.Categorical[c.Name] = CategoricalSummary{
			UniqueCount:           len(counts),
			MostFrequent:          topN(counts, th.TopFrequent),
			FrequencyDistribution: topN(counts, th.FrequencyTable),
		}
	}
	return st
}

func basicStats(ds *dataset.Dataset) BasicStats {
	b := BasicStats{
		Shape:           [2]int{ds.Rows(), ds.Width()},
		MemoryUsage:     memoryUsage(ds),
		DTypes:          make(map[string]string, ds.Width()),
		NullCounts:      make(map[string]int, ds.Width()),
		NullPercentages: make(map[string]float64, ds.Width()),
	}
	for _, c := range ds.Columns() {
		b.DTypes[c.Name] = dtype(c)
		n := c.NullCount()
		b.NullCounts[c.Name] = n
		if ds.Rows() > 0 {
			b.NullPercentages[c.Name] = float64(n) / float64(ds.Rows()) * 100
		} else {
			b.NullPercentages[c.Name] = 0
		}
	}
	return b
}

func dtype(c *dataset.Column) string {
	switch {
	case c.Kind == dataset.Categorical:
		return "object"
	case c.Integral():
		return "int64"
	default:
		return "float64"
	}
}

// memoryUsage estimates the in-memory footprint in bytes: a fixed index
// overhead, 8 bytes per numeric cell, and for text cells a pointer plus a
// string header and the label bytes.
func memoryUsage(ds *dataset.Dataset) int64 {
	const (
		indexBytes   = 128
		pointerBytes = 8
		stringBytes  = 49
		nullBytes    = 16
	)
	total := int64(indexBytes)
	for _, c := range ds.Columns() {
		if c.Kind == dataset.Numeric {
			total += int64(8 * c.Len())
			continue
		}
		for i := 0; i < c.Len(); i++ {
			total += pointerBytes
			if c.IsNull(i) {
				total += nullBytes
			} else {
				total += stringBytes + int64(len(c.Label(i)))
			}
		}
	}
	return total
}

// PearsonMatrix correlates every pair of numeric columns over the rows where
// both are present. The diagonal is 1 and undefined entries are 0.
func PearsonMatrix(cols []*dataset.Column) CorrelationMatrix {
	n := len(cols)
	m := CorrelationMatrix{Columns: names(cols), Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := pairwise(cols[i], cols[j])
			r := pearson(x, y)
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pairwise(a, b *dataset.Column) (x, y []float64) {
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) || b.IsNull(i) {
			continue
		}
		x = append(x, a.Float(i))
		y = append(y, b.Float(i))
	}
	return x, y
}

// valueCounts counts non-null labels ordered by count desc, ties by first appearance.
func valueCounts(c *dataset.Column) []ValueCount {
	idx := map[string]int{}
	var out []ValueCount
	for _, v := range c.Labels() {
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func topN(counts []ValueCount, n int) []ValueCount {
	if n > len(counts) {
		n = len(counts)
	}
	out := make([]ValueCount, n)
	copy(out, counts[:n])
	return out
}
