package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
	"github.com/KaramelBytes/datalens-cli/internal/profile"
)

var fixed = time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC)

func clock() time.Time { return fixed }

func newOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	eng, err := analysis.NewEngine(phrase.MustLoad("en"), analysis.DefaultThresholds())
	require.NoError(t, err)
	return New(eng, append([]Option{WithClock(clock)}, opts...)...)
}

// salesCSV has 12 data rows, one all-null row and one all-null column.
func salesCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("price,quantity,region,notes\n")
	regions := []string{"north", "south", "east"}
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "%d,%d,%s,\n", i*10, i, regions[i%3])
	}
	b.WriteString(",,,\n")
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRunEndToEnd(t *testing.T) {
	path := salesCSV(t, 12)
	rep := newOrchestrator(t).Run(path)
	require.True(t, rep.Success, rep.Error)

	assert.Equal(t, "2025-01-02T03:04:05.000006Z", rep.Timestamp)
	assert.Equal(t, path, rep.FileInfo.Path)
	assert.Equal(t, "csv", rep.FileInfo.Type)
	assert.Equal(t, 13, rep.FileInfo.Rows)
	assert.Equal(t, 4, rep.FileInfo.Columns)
	assert.Equal(t, []string{"price", "quantity", "region", "notes"}, rep.FileInfo.ColumnNames)

	assert.Equal(t, [2]int{12, 3}, rep.Statistics.Basic.Shape)
	assert.Equal(t, profile.DomainRetail, rep.Analysis.DomainLabel())
	require.Len(t, rep.Statistics.Correlations.Strong, 1)
	assert.Equal(t, analysis.VeryStrong, rep.Statistics.Correlations.Strong[0].Strength)
	assert.Equal(t, float64(100), rep.Statistics.DataQuality.CompletenessScore)
	assert.Empty(t, rep.Statistics.DataQuality.ColumnsWithMissingData)

	assert.Equal(t, analysis.ScreenOK, rep.Predictions.Status)
	assert.Equal(t, "price", rep.Predictions.TargetVariable)
	assert.Equal(t, 12, rep.Predictions.SampleSize)
	assert.InDelta(t, 1.0, rep.Predictions.Correlations["quantity"], 1e-9)
	assert.NotEmpty(t, rep.Insights.DataTypeAssessment)
	assert.NotEmpty(t, rep.Visualizations.RecommendedCharts)
}

func TestRunSkipsPredictionsOnSmallData(t *testing.T) {
	rep := newOrchestrator(t).Run(salesCSV(t, 10))
	require.True(t, rep.Success, rep.Error)
	b, err := rep.JSON()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.JSONEq(t, `{}`, string(m["predictions"]))
}

func TestRunHandlesValuesNearFloatLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")
	require.NoError(t, os.WriteFile(path, []byte("amount,label\n-1e308,a\n0,b\n1e308,c\n"), 0o644))

	rep := newOrchestrator(t).Run(path)
	require.True(t, rep.Success, rep.Error)
	d := rep.Statistics.Numeric.Descriptive["amount"]
	assert.Equal(t, 0.0, d.Mean)
	assert.Equal(t, 1e308, d.Max)
	_, err := rep.JSON()
	require.NoError(t, err)
}

func TestRunMissingFile(t *testing.T) {
	tl := logging.NewTestLogger()
	path := filepath.Join(t.TempDir(), "nope.csv")
	rep := newOrchestrator(t, WithLogger(tl.Logger)).Run(path)

	assert.False(t, rep.Success)
	assert.Equal(t, "file not found: "+path, rep.Error)
	assert.Nil(t, rep.FileInfo)
	assert.NotEmpty(t, rep.Timestamp)
	tl.AssertLogged(t, zapcore.ErrorLevel, "analysis failed")
}

func TestRunUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	rep := newOrchestrator(t).Run(path)
	assert.False(t, rep.Success)
	assert.Contains(t, rep.Error, "unsupported file format")
}

func TestRunRecoversStagePanic(t *testing.T) {
	tl := logging.NewTestLogger()
	o := newOrchestrator(t,
		WithLogger(tl.Logger),
		WithProfiler(ProfilerFunc(func(*dataset.Dataset) *profile.Profile { panic("profiler exploded") })),
	)
	rep := o.Run(salesCSV(t, 12))
	assert.False(t, rep.Success)
	assert.Equal(t, "profiler exploded", rep.Error)

	entries := tl.FilterMessage("analysis failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, StageProfile, entries[0].ContextMap()["stage"])
}

type panicScreener struct{}

func (panicScreener) Screen(analysis.Columns) analysis.PredictiveScreen { panic(errors.New("kaboom")) }

func TestRunIsolatesPredictionFailure(t *testing.T) {
	rep := newOrchestrator(t, WithScreener(panicScreener{})).Run(salesCSV(t, 12))
	require.True(t, rep.Success)
	assert.Equal(t, "predictive analysis error: kaboom", rep.Predictions.Error)
	assert.Empty(t, rep.Predictions.Status)
}

func TestRunLoaderErrors(t *testing.T) {
	path := salesCSV(t, 3)

	o := newOrchestrator(t, WithLoader(LoaderFunc(func(string, dataset.Options) (*dataset.Dataset, error) {
		return nil, nil
	})))
	rep := o.Run(path)
	assert.False(t, rep.Success)
	assert.Equal(t, ErrEmptyLoad.Error(), rep.Error)

	o = newOrchestrator(t, WithLoader(LoaderFunc(func(string, dataset.Options) (*dataset.Dataset, error) {
		return nil, fmt.Errorf("parse csv: %w", dataset.ErrNoHeader)
	})))
	rep = o.Run(path)
	assert.Equal(t, "parse csv: no header row", rep.Error)
}

func TestStageErrorUnwrap(t *testing.T) {
	o := newOrchestrator(t)
	err := o.stage(StageStatistics, func() error { return dataset.ErrColumnLength })
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageStatistics, se.Stage)
	assert.ErrorIs(t, err, dataset.ErrColumnLength)

	err = o.stage(StageInsights, func() error { panic(42) })
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "42", err.Error())
}

func TestRunIsIdempotent(t *testing.T) {
	path := salesCSV(t, 15)
	o := newOrchestrator(t)
	a, err := o.Run(path).JSON()
	require.NoError(t, err)
	b, err := o.Run(path).JSON()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunContextAbandons(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	o := newOrchestrator(t, WithLoader(LoaderFunc(func(p string, opt dataset.Options) (*dataset.Dataset, error) {
		<-release
		return dataset.Load(p, opt)
	})))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rep, err := o.RunContext(ctx, salesCSV(t, 3))
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	rep, err = newOrchestrator(t).RunContext(context.Background(), salesCSV(t, 3))
	require.NoError(t, err)
	assert.True(t, rep.Success)
}
