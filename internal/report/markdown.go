package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Markdown renders a readable summary of the report.
func (r *AnalysisReport) Markdown() string {
	var b strings.Builder
	if !r.Success {
		b.WriteString("# Analysis failed\n\n")
		fmt.Fprintf(&b, "%s\n\n_%s_\n", safeVal(r.Error), r.Timestamp)
		return b.String()
	}
	title := "dataset"
	if r.FileInfo != nil {
		title = r.FileInfo.Path
	}
	fmt.Fprintf(&b, "# Analysis report: %s\n\n_%s_\n", safeVal(title), r.Timestamp)

	if fi := r.FileInfo; fi != nil {
		b.WriteString("\n## Dataset\n\n")
		fmt.Fprintf(&b, "- Type: %s\n- Rows: %d\n- Columns: %d\n", fi.Type, fi.Rows, fi.Columns)
	}
	var numeric, categorical []string
	if p := r.Analysis; p != nil {
		fmt.Fprintf(&b, "- Business domain: %s\n", p.DomainLabel())
		b.WriteString("\n## Columns\n\n| Column | Kind | Missing | Unique |\n| --- | --- | --- | --- |\n")
		for _, c := range p.ColumnProfiles {
			fmt.Fprintf(&b, "| %s | %s | %d (%.1f%%) | %d |\n", safeName(c.Name), c.Kind, c.NullCount, c.NullRatio*100, c.UniqueCount)
			if c.Kind == dataset.Numeric {
				numeric = append(numeric, c.Name)
			} else {
				categorical = append(categorical, c.Name)
			}
		}
	}
	if st := r.Statistics; st != nil {
		if len(st.Numeric.Descriptive) > 0 {
			if numeric == nil {
				numeric = sortedKeys(st.Numeric.Descriptive)
			}
			b.WriteString("\n## Numeric statistics\n\n| Column | Count | Mean | Std | Min | Median | Max | Skew | Kurtosis |\n| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
			for _, name := range numeric {
				d, ok := st.Numeric.Descriptive[name]
				if !ok {
					continue
				}
				fmt.Fprintf(&b, "| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4g | %.3f | %.3f |\n",
					safeName(name), d.Count, d.Mean, d.Std, d.Min, d.P50, d.Max, st.Numeric.Skewness[name], st.Numeric.Kurtosis[name])
			}
		}
		if len(st.Categorical) > 0 {
			if categorical == nil {
				categorical = sortedKeys(st.Categorical)
			}
			b.WriteString("\n## Categorical statistics\n\n")
			for _, name := range categorical {
				c, ok := st.Categorical[name]
				if !ok {
					continue
				}
				fmt.Fprintf(&b, "- %s: %d unique", safeName(name), c.UniqueCount)
				if len(c.MostFrequent) > 0 {
					b.WriteString("; top: ")
					for i, vc := range c.MostFrequent {
						if i > 0 {
							b.WriteString(", ")
						}
						fmt.Fprintf(&b, "%s (%d)", safeVal(vc.Value), vc.Count)
					}
				}
				b.WriteString("\n")
			}
		}
		if len(st.Correlations.Strong) > 0 {
			b.WriteString("\n## Strong correlations\n\n")
			for _, p := range st.Correlations.Strong {
				fmt.Fprintf(&b, "- %s ~ %s: r=%.3f (%s)\n", safeName(p.Var1), safeName(p.Var2), p.Correlation, p.Strength)
			}
		}
		q := st.DataQuality
		b.WriteString("\n## Data quality\n\n")
		fmt.Fprintf(&b, "- Completeness: %.2f%%\n- Duplicate rows: %d\n", q.CompletenessScore, q.DuplicateRows)
		if len(q.ColumnsWithMissingData) > 0 {
			fmt.Fprintf(&b, "- Columns with missing data: %s\n", strings.Join(q.ColumnsWithMissingData, ", "))
		}
		if len(q.HighCardinalityColumns) > 0 {
			fmt.Fprintf(&b, "- High-cardinality columns: %s\n", strings.Join(q.HighCardinalityColumns, ", "))
		}
	}
	if in := r.Insights; in != nil {
		b.WriteString("\n## Insights\n\n")
		b.WriteString(in.DataTypeAssessment + "\n")
		writeList(&b, "Key findings", in.KeyFindings)
		if len(in.PerformanceIndicators) > 0 {
			b.WriteString("\n### Performance indicators\n\n")
			for _, k := range sortedKeys(in.PerformanceIndicators) {
				fmt.Fprintf(&b, "- %s: %.4g\n", safeName(k), in.PerformanceIndicators[k])
			}
		}
		writeList(&b, "Risks", in.RiskFactors)
		writeList(&b, "Opportunities", in.Opportunities)
		writeList(&b, "Recommendations", in.Recommendations)
	}
	if v := r.Visualizations; v != nil && len(v.RecommendedCharts) > 0 {
		b.WriteString("\n## Recommended charts\n\n")
		for _, c := range v.RecommendedCharts {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", safeVal(c.Title), c.Type, safeVal(c.Description))
		}
	}
	if p := r.Predictions; p != nil && p.Status != "" {
		b.WriteString("\n## Predictive screen\n\n")
		if p.Message != "" {
			b.WriteString(p.Message + "\n")
		} else {
			fmt.Fprintf(&b, "Target: %s (n=%d)\n\n", safeName(p.TargetVariable), p.SampleSize)
			for _, f := range p.FeatureVariables {
				fmt.Fprintf(&b, "- %s: r=%.3f\n", safeName(f), p.Correlations[f])
			}
			b.WriteString("\n" + p.Recommendation + "\n")
		}
	}
	return b.String()
}

// HTML renders the Markdown summary as a standalone HTML page.
func (r *AnalysisReport) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Analysis report",
	})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", heading)
	for _, it := range items {
		b.WriteString("- " + safeVal(it) + "\n")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
