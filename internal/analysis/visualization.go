package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/datalens-cli/internal/phrase"
)

// ChartKind names a recommended chart type.
type ChartKind string

const (
	Histogram ChartKind = "histogram"
	Bar       ChartKind = "bar"
	Heatmap   ChartKind = "heatmap"
)

// ChartSpec is one recommended chart. Heatmaps reference Columns, other
// charts a single Column.
type ChartSpec struct {
	Type        ChartKind `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Column      string    `json:"column,omitempty"`
	Columns     []string  `json:"columns,omitempty"`
}

// ChartData holds the values behind a histogram (Bins are edges, one more
// than Counts) or a bar chart (Labels).
type ChartData struct {
	Bins   []float64 `json:"bins,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Counts []int     `json:"counts"`
}

// Visualizations is the visualization section of a report.
type Visualizations struct {
	RecommendedCharts []ChartSpec          `json:"recommended_charts"`
	ChartData         map[string]ChartData `json:"chart_data"`
}

var chartPhrases = []string{
	"chart.histogram.title", "chart.histogram.description",
	"chart.bar.title", "chart.bar.description",
	"chart.heatmap.title", "chart.heatmap.description",
}

// VisualizationRecommender maps classified columns to chart specs.
type VisualizationRecommender struct {
	phrases *phrase.Catalog
	th      Thresholds
}

// NewVisualizationRecommender validates the chart phrases.
func NewVisualizationRecommender(c *phrase.Catalog, th Thresholds) (*VisualizationRecommender, error) {
	if err := c.Require(chartPhrases...); err != nil {
		return nil, fmt.Errorf("chart phrases: %w", err)
	}
	return &VisualizationRecommender{phrases: c, th: th}, nil
}

// Recommend emits histograms, then bar charts, then at most one heatmap.
func (v *VisualizationRecommender) Recommend(cols Columns) Visualizations {
	out := Visualizations{RecommendedCharts: []ChartSpec{}, ChartData: map[string]ChartData{}}
	for _, c := range head(cols.Numeric, v.th.HistogramColumns) {
		p := phrase.Params{"column": c.Name}
		out.RecommendedCharts = append(out.RecommendedCharts, ChartSpec{
			Type:        Histogram,
			Title:       v.phrases.Render("chart.histogram.title", p),
			Description: v.phrases.Render("chart.histogram.description", p),
			Column:      c.Name,
		})
		if vals := c.Floats(); len(vals) > 0 {
			out.ChartData[c.Name] = histogram(vals, v.th.HistogramBins)
		}
	}
	for _, c := range head(cols.Categorical, v.th.BarColumns) {
		p := phrase.Params{"column": c.Name}
		out.RecommendedCharts = append(out.RecommendedCharts, ChartSpec{
			Type:        Bar,
			Title:       v.phrases.Render("chart.bar.title", p),
			Description: v.phrases.Render("chart.bar.description", p),
			Column:      c.Name,
		})
		if counts := topN(valueCounts(c), v.th.FrequencyTable); len(counts) > 0 {
			d := ChartData{Labels: make([]string, len(counts)), Counts: make([]int, len(counts))}
			for i, vc := range counts {
				d.Labels[i], d.Counts[i] = vc.Value, vc.Count
			}
			out.ChartData[c.Name] = d
		}
	}
	if len(cols.Numeric) > 1 {
		out.RecommendedCharts = append(out.RecommendedCharts, ChartSpec{
			Type:        Heatmap,
			Title:       v.phrases.Render("chart.heatmap.title", nil),
			Description: v.phrases.Render("chart.heatmap.description", nil),
			Columns:     cols.NumericNames(),
		})
	}
	return out
}

// histogram buckets vals into equal-width bins spanning [min, max]. A
// constant column gets a single bin.
func histogram(vals []float64, bins int) ChartData {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if bins < 1 || lo == hi {
		bins = 1
	}
	dividers := make([]float64, bins+1)
	switch {
	case lo == hi:
		dividers[0] = lo
	case math.IsInf(hi-lo, 0):
		// The range overflows; span half of it and scale back.
		floats.Span(dividers, lo/2, hi/2)
		floats.Scale(2, dividers)
	default:
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram treats the last divider as exclusive.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	d := ChartData{Bins: make([]float64, len(dividers)), Counts: make([]int, len(counts))}
	copy(d.Bins, dividers)
	d.Bins[bins] = hi
	for i, c := range counts {
		d.Counts[i] = int(c)
	}
	return d
}
