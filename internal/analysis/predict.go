package analysis

import (
	"fmt"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
)

// ScreenStatus is the outcome of a predictive screen.
type ScreenStatus string

const (
	ScreenOK                  ScreenStatus = "ok"
	ScreenInsufficientNumeric ScreenStatus = "insufficient_numeric_data"
	ScreenInsufficientClean   ScreenStatus = "insufficient_clean_data"
)

// PredictiveScreen is the prediction section of a report. The zero value
// (screen not run) encodes as {}.
type PredictiveScreen struct {
	Status           ScreenStatus       `json:"status,omitempty"`
	Message          string             `json:"message,omitempty"`
	TargetVariable   string             `json:"target_variable,omitempty"`
	FeatureVariables []string           `json:"feature_variables,omitempty"`
	Correlations     map[string]float64 `json:"correlations,omitempty"`
	SampleSize       int                `json:"sample_size,omitempty"`
	Recommendation   string             `json:"recommendation,omitempty"`
	// Error is set when the screen itself failed; the rest of the report stands.
	Error string `json:"error,omitempty"`
}

var predictPhrases = []string{"predict.insufficient_numeric", "predict.insufficient_clean", "predict.recommendation"}

// PredictiveScreener correlates a target column against candidate features.
// The target is the first numeric column and the features are the next
// numeric columns in dataset order; no model is fitted.
type PredictiveScreener struct {
	phrases *phrase.Catalog
	th      Thresholds
}

// NewPredictiveScreener validates the screen phrases.
func NewPredictiveScreener(c *phrase.Catalog, th Thresholds) (*PredictiveScreener, error) {
	if err := c.Require(predictPhrases...); err != nil {
		return nil, fmt.Errorf("predict phrases: %w", err)
	}
	return &PredictiveScreener{phrases: c, th: th}, nil
}

// Screen runs the screen. Insufficient data is a status, not an error.
func (p *PredictiveScreener) Screen(cols Columns) PredictiveScreen {
	if len(cols.Numeric) < 2 {
		return PredictiveScreen{Status: ScreenInsufficientNumeric, Message: p.phrases.Render("predict.insufficient_numeric", nil)}
	}
	target := cols.Numeric[0]
	features := head(cols.Numeric[1:], p.th.MaxFeatures)

	rows := completeRows(append([]*dataset.Column{target}, features...))
	if len(rows) < p.th.PredictiveMinRows {
		return PredictiveScreen{Status: ScreenInsufficientClean, Message: p.phrases.Render("predict.insufficient_clean", nil)}
	}

	y := gather(target, rows)
	out := PredictiveScreen{
		Status:           ScreenOK,
		TargetVariable:   target.Name,
		FeatureVariables: names(features),
		Correlations:     make(map[string]float64, len(features)),
		SampleSize:       len(rows),
		Recommendation:   p.phrases.Render("predict.recommendation", nil),
	}
	for _, f := range features {
		out.Correlations[f.Name] = pearson(y, gather(f, rows))
	}
	return out
}

// completeRows returns the rows where every column is non-null.
func completeRows(cols []*dataset.Column) []int {
	if len(cols) == 0 {
		return nil
	}
	var rows []int
	for i := 0; i < cols[0].Len(); i++ {
		ok := true
		for _, c := range cols {
			if c.IsNull(i) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}

func gather(c *dataset.Column, rows []int) []float64 {
	out := make([]float64, len(rows))
	for j, i := range rows {
		out[j] = c.Float(i)
	}
	return out
}
