package analysis

import "github.com/KaramelBytes/datalens-cli/internal/phrase"

// Engine bundles the rule-driven components configured with one phrase
// catalog and one set of thresholds. It holds no per-run state.
type Engine struct {
	Thresholds Thresholds
	Insights   *InsightEngine
	Charts     *VisualizationRecommender
	Screener   *PredictiveScreener
}

// NewEngine builds every component, failing if the catalog lacks a phrase.
func NewEngine(c *phrase.Catalog, th Thresholds) (*Engine, error) {
	ins, err := NewInsightEngine(c, th)
	if err != nil {
		return nil, err
	}
	charts, err := NewVisualizationRecommender(c, th)
	if err != nil {
		return nil, err
	}
	scr, err := NewPredictiveScreener(c, th)
	if err != nil {
		return nil, err
	}
	return &Engine{Thresholds: th, Insights: ins, Charts: charts, Screener: scr}, nil
}
