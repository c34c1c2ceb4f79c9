package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

func TestScreenInsufficientNumeric(t *testing.T) {
	s := newEngine(t, "en").Screener
	got := s.Screen(Classify(priceAndCategory()))
	assert.Equal(t, ScreenInsufficientNumeric, got.Status)
	assert.Equal(t, "Not enough numeric data for predictive analysis", got.Message)
	assert.Empty(t, got.TargetVariable)

	got = s.Screen(Columns{})
	assert.Equal(t, ScreenInsufficientNumeric, got.Status)
}

func TestScreenInsufficientCleanRows(t *testing.T) {
	target := seq(1, 12)
	f1 := seq(1, 12)
	f2 := seq(1, 12)
	for _, i := range []int{0, 1, 2} {
		target[i] = nan
	}
	for _, i := range []int{3, 4, 5} {
		f1[i] = nan
	}
	for _, i := range []int{6, 7, 8} {
		f2[i] = nan
	}
	ds := dataset.MustNew(
		dataset.NewNumeric("target", target),
		dataset.NewNumeric("f1", f1),
		dataset.NewNumeric("f2", f2),
	)
	var got PredictiveScreen
	require.NotPanics(t, func() { got = newEngine(t, "en").Screener.Screen(Classify(ds)) })
	assert.Equal(t, ScreenInsufficientClean, got.Status)
	assert.Equal(t, "Not enough clean data for predictive analysis", got.Message)
}

func TestScreenSelectsPositionally(t *testing.T) {
	y := seq(1, 12)
	neg := make([]float64, 12)
	for i, v := range y {
		neg[i] = -v
	}
	ds := dataset.MustNew(
		dataset.NewNumeric("target", y),
		dataset.NewCategorical("label", []string{"a", "b", "a", "b", "a", "b", "a", "b", "a", "b", "a", "b"}),
		dataset.NewNumeric("same", y),
		dataset.NewNumeric("flat", []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}),
		dataset.NewNumeric("neg", neg),
		dataset.NewNumeric("ignored", y),
	)
	got := newEngine(t, "en").Screener.Screen(Classify(ds))
	assert.Equal(t, ScreenOK, got.Status)
	assert.Equal(t, "target", got.TargetVariable)
	assert.Equal(t, []string{"same", "flat", "neg"}, got.FeatureVariables)
	assert.Equal(t, 12, got.SampleSize)
	assert.InDelta(t, 1, got.Correlations["same"], 1e-12)
	assert.Equal(t, 0.0, got.Correlations["flat"])
	assert.InDelta(t, -1, got.Correlations["neg"], 1e-12)
	assert.NotContains(t, got.Correlations, "ignored")
	assert.Equal(t, "Variables with strong correlations may be suitable for a forecasting model", got.Recommendation)
}

func TestScreenAcceptsExactlyMinRows(t *testing.T) {
	x := seq(1, 10)
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7, 10, 9}
	ds := dataset.MustNew(dataset.NewNumeric("x", x), dataset.NewNumeric("y", y))
	got := newEngine(t, "en").Screener.Screen(Classify(ds))
	assert.Equal(t, ScreenOK, got.Status)
	assert.Equal(t, 10, got.SampleSize)
}
