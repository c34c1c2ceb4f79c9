package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/profile"
)

var fixedTime = time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC)

func sampleReport() *AnalysisReport {
	return &AnalysisReport{
		Success:   true,
		Timestamp: fixedTime.Format(TimestampLayout),
		FileInfo: &FileInfo{
			Path: "/tmp/sales.csv", Type: "csv", Rows: 3, Columns: 2,
			ColumnNames: []string{"price", "region"},
		},
		Analysis: &profile.Profile{
			Rows: 3, Columns: 2,
			ColumnProfiles: []dataset.ColumnProfile{
				{Name: "price", Kind: dataset.Numeric, UniqueCount: 3},
				{Name: "region", Kind: dataset.Categorical, NullCount: 1, NullRatio: 1.0 / 3, UniqueCount: 2},
			},
			BusinessDomain: profile.BusinessDomain{Label: profile.DomainRetail},
		},
		Statistics: &analysis.Statistics{
			Numeric: analysis.NumericStats{
				Descriptive: map[string]analysis.Descriptive{"price": {Count: 3, Mean: 2, Std: 1, Min: 1, P50: 2, Max: 3}},
				Skewness:    map[string]float64{"price": 0},
				Kurtosis:    map[string]float64{"price": 0},
			},
			Categorical: map[string]analysis.CategoricalSummary{
				"region": {UniqueCount: 2, MostFrequent: []analysis.ValueCount{{Value: "north", Count: 1}}},
			},
			DataQuality: analysis.QualitySignals{CompletenessScore: 83.33, ColumnsWithMissingData: []string{"region"}},
		},
		Insights: &analysis.InsightBundle{
			DataTypeAssessment:    "Retail data.",
			KeyFindings:           []string{"price: max=3.00, min=1.00"},
			PerformanceIndicators: map[string]float64{"price_average": 2},
			Recommendations:       []string{"Handle missing values."},
		},
		Visualizations: &analysis.Visualizations{
			RecommendedCharts: []analysis.ChartSpec{{Type: analysis.Histogram, Title: "Distribution of price", Column: "price"}},
		},
		Predictions: &analysis.PredictiveScreen{},
	}
}

func TestFailureShape(t *testing.T) {
	r := Failure("file not found: x.csv", fixedTime)
	b, err := r.JSON()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m, 3)
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "file not found: x.csv", m["error"])
	assert.Equal(t, "2025-03-04T05:06:07.123456Z", m["timestamp"])
}

func TestSuccessJSONKeys(t *testing.T) {
	b, err := sampleReport().JSON()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"success", "timestamp", "file_info", "analysis", "statistics", "insights", "visualizations", "predictions"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "error")
	assert.JSONEq(t, `{}`, string(m["predictions"]))
	assert.Contains(t, string(m["analysis"]), `"primary": "retail"`)
}

func TestDecodeRoundTrip(t *testing.T) {
	in := sampleReport()
	b, err := in.JSON()
	require.NoError(t, err)
	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in.FileInfo, out.FileInfo)
	assert.Equal(t, in.Timestamp, out.Timestamp)
	assert.Equal(t, in.Insights.KeyFindings, out.Insights.KeyFindings)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	md := sampleReport().Markdown()
	assert.True(t, strings.HasPrefix(md, "# Analysis report: /tmp/sales.csv"))
	assert.Contains(t, md, "- Business domain: retail")
	assert.Contains(t, md, "| region | categorical | 1 (33.3%) | 2 |")
	assert.Contains(t, md, "## Numeric statistics")
	assert.Contains(t, md, "north (1)")
	assert.Contains(t, md, "### Key findings")
	assert.Contains(t, md, "- price_average: 2")
	assert.Contains(t, md, "**Distribution of price** (histogram)")
	assert.NotContains(t, md, "## Predictive screen")

	fail := Failure("boom|bad\nline", fixedTime).Markdown()
	assert.Contains(t, fail, "# Analysis failed")
	assert.Contains(t, fail, "boom/bad line")
}

func TestHTML(t *testing.T) {
	out := string(sampleReport().HTML())
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "Numeric statistics")
}

func TestRender(t *testing.T) {
	r := sampleReport()
	for _, f := range Formats {
		b, err := r.Render(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, b)
	}
	_, err := r.Render("pdf")
	assert.Error(t, err)
}
