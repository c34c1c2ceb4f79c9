package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
)

var nan = math.NaN()

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

// priceAndCategory is a single numeric column beside one categorical column.
func priceAndCategory() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewNumeric("price", []float64{10, 20, 30, 40, 50}),
		dataset.NewCategorical("category", []string{"A", "A", "B", "B", "C"}),
	)
}

// mixedRules exercises every insight rule: b has high variance, c is 30%
// missing with two segments, and a/d correlate perfectly.
func mixedRules() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewNumeric("a", seq(1, 10)),
		dataset.NewNumeric("b", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 100}),
		dataset.NewCategorical("c", []string{"x", "y", "x", "y", "x", "y", "x", "", "", ""}),
		dataset.NewNumeric("d", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, nan}),
	)
}

func newEngine(t *testing.T, locale string) *Engine {
	t.Helper()
	e, err := NewEngine(phrase.MustLoad(locale), DefaultThresholds())
	require.NoError(t, err)
	return e
}
