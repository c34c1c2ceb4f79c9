package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
)

// InsightBundle is the business-insight section of a report.
type InsightBundle struct {
	DataTypeAssessment    string             `json:"data_type_assessment"`
	KeyFindings           []string           `json:"key_findings"`
	PerformanceIndicators map[string]float64 `json:"performance_indicators"`
	RiskFactors           []string           `json:"risk_factors"`
	Opportunities         []string           `json:"opportunities"`
	Recommendations       []string           `json:"recommendations"`
}

// domainNarratives maps a business-domain label to its narrative phrase.
var domainNarratives = map[string]string{
	"retail":     "domain.retail",
	"finance":    "domain.finance",
	"healthcare": "domain.healthcare",
	"hr":         "domain.hr",
	"unknown":    "domain.unknown",
}

func narrativeID(domain string) string {
	if id, ok := domainNarratives[domain]; ok {
		return id
	}
	return domainNarratives["unknown"]
}

// evalContext is the read-only input every rule sees.
type evalContext struct {
	ds      *dataset.Dataset
	cols    Columns
	stats   *Statistics
	quality QualitySignals
	th      Thresholds
}

// rule renders its phrase once per parameter set returned by eval.
type rule struct {
	id   string
	eval func(*evalContext) []phrase.Params
}

// perColumn fires fn for each column in scope, in dataset order.
func perColumn(scope func(*evalContext) []*dataset.Column, fn func(*evalContext, *dataset.Column) (phrase.Params, bool)) func(*evalContext) []phrase.Params {
	return func(ctx *evalContext) []phrase.Params {
		var out []phrase.Params
		for _, c := range scope(ctx) {
			if p, ok := fn(ctx, c); ok {
				out = append(out, p)
			}
		}
		return out
	}
}

// once fires fn at most once per dataset.
func once(fn func(*evalContext) (phrase.Params, bool)) func(*evalContext) []phrase.Params {
	return func(ctx *evalContext) []phrase.Params {
		if p, ok := fn(ctx); ok {
			return []phrase.Params{p}
		}
		return nil
	}
}

func whenever(cond func(*evalContext) bool) func(*evalContext) []phrase.Params {
	return once(func(ctx *evalContext) (phrase.Params, bool) { return nil, cond(ctx) })
}

var findingRules = []rule{
	{"finding.range", perColumn(
		func(ctx *evalContext) []*dataset.Column { return head(ctx.cols.Numeric, ctx.th.FindingColumns) },
		func(ctx *evalContext, c *dataset.Column) (phrase.Params, bool) {
			d := ctx.stats.Numeric.Descriptive[c.Name]
			return phrase.Params{"column": c.Name, "max": format2(d.Max), "min": format2(d.Min)}, true
		})},
	{"finding.high_missing", once(func(ctx *evalContext) (phrase.Params, bool) {
		return joinedColumns(ctx.missingAbove(ctx.th.FindingMissingRatio))
	})},
}

var riskRules = []rule{
	{"risk.high_variance", perColumn(
		func(ctx *evalContext) []*dataset.Column { return ctx.cols.Numeric },
		func(ctx *evalContext, c *dataset.Column) (phrase.Params, bool) {
			cv := ctx.stats.Numeric.Descriptive[c.Name].CV()
			return phrase.Params{"column": c.Name, "cv": format2(cv)}, cv > ctx.th.HighVarianceCV
		})},
	{"risk.missing_data", once(func(ctx *evalContext) (phrase.Params, bool) {
		return joinedColumns(ctx.missingAbove(ctx.th.RiskMissingRatio))
	})},
}

var opportunityRules = []rule{
	{"opportunity.segmentation", perColumn(
		func(ctx *evalContext) []*dataset.Column { return ctx.cols.Categorical },
		func(ctx *evalContext, c *dataset.Column) (phrase.Params, bool) {
			n := ctx.stats.Categorical[c.Name].UniqueCount
			return phrase.Params{"column": c.Name, "segments": strconv.Itoa(n)}, n >= ctx.th.SegmentMin && n <= ctx.th.SegmentMax
		})},
	{"opportunity.strong_correlations", once(func(ctx *evalContext) (phrase.Params, bool) {
		n := len(ctx.stats.Correlations.Strong)
		return phrase.Params{"pairs": strconv.Itoa(n)}, n > 0
	})},
}

var recommendationRules = []rule{
	{"recommendation.missing_data", whenever(func(ctx *evalContext) bool { return len(ctx.quality.ColumnsWithMissingData) > 0 })},
	{"recommendation.trend", whenever(func(ctx *evalContext) bool { return len(ctx.cols.Numeric) > 0 })},
	{"recommendation.segmentation", whenever(func(ctx *evalContext) bool { return len(ctx.cols.Categorical) > 0 })},
}

func joinedColumns(cols []string) (phrase.Params, bool) {
	return phrase.Params{"columns": strings.Join(cols, ", ")}, len(cols) > 0
}

// missingAbove lists columns, in order, whose null ratio exceeds ratio.
func (ctx *evalContext) missingAbove(ratio float64) []string {
	var out []string
	limit := float64(ctx.ds.Rows()) * ratio
	for _, c := range ctx.ds.Columns() {
		if float64(c.NullCount()) > limit {
			out = append(out, c.Name)
		}
	}
	return out
}

// InsightEngine evaluates the rule tables and renders their phrases.
type InsightEngine struct {
	phrases *phrase.Catalog
	th      Thresholds
}

// NewInsightEngine validates that the catalog covers every rule.
func NewInsightEngine(c *phrase.Catalog, th Thresholds) (*InsightEngine, error) {
	ids := []string{}
	for _, id := range domainNarratives {
		ids = append(ids, id)
	}
	for _, table := range [][]rule{findingRules, riskRules, opportunityRules, recommendationRules} {
		for _, r := range table {
			ids = append(ids, r.id)
		}
	}
	if err := c.Require(ids...); err != nil {
		return nil, fmt.Errorf("insight phrases: %w", err)
	}
	return &InsightEngine{phrases: c, th: th}, nil
}

// Generate produces the insight bundle. Sub-lists are empty, never nil.
func (e *InsightEngine) Generate(ds *dataset.Dataset, cols Columns, st *Statistics, q QualitySignals, domain string) InsightBundle {
	ctx := &evalContext{ds: ds, cols: cols, stats: st, quality: q, th: e.th}
	return InsightBundle{
		DataTypeAssessment:    e.phrases.Render(narrativeID(domain), nil),
		KeyFindings:           e.apply(findingRules, ctx),
		PerformanceIndicators: kpis(cols, st, e.th.KPIColumns),
		RiskFactors:           e.apply(riskRules, ctx),
		Opportunities:         e.apply(opportunityRules, ctx),
		Recommendations:       e.apply(recommendationRules, ctx),
	}
}

func (e *InsightEngine) apply(rules []rule, ctx *evalContext) []string {
	out := []string{}
	for _, r := range rules {
		for _, p := range r.eval(ctx) {
			out = append(out, e.phrases.Render(r.id, p))
		}
	}
	return out
}

func kpis(cols Columns, st *Statistics, n int) map[string]float64 {
	out := map[string]float64{}
	for _, c := range head(cols.Numeric, n) {
		d := st.Numeric.Descriptive[c.Name]
		out[c.Name+"_average"] = d.Mean
		out[c.Name+"_median"] = d.P50
		out[c.Name+"_std"] = d.Std
		out[c.Name+"_cv"] = d.CV()
	}
	return out
}
