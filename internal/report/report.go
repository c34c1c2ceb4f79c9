// Package report defines the analysis report document and its renderings.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/profile"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// TimestampLayout is RFC3339 with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FileInfo describes the raw input as loaded, before cleaning.
type FileInfo struct {
	Path        string   `json:"path"`
	Type        string   `json:"type"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// AnalysisReport is the root document produced by one analysis run. A failed
// run carries only Success, Error and Timestamp.
type AnalysisReport struct {
	Success        bool                       `json:"success"`
	Error          string                     `json:"error,omitempty"`
	Timestamp      string                     `json:"timestamp"`
	FileInfo       *FileInfo                  `json:"file_info,omitempty"`
	Analysis       *profile.Profile           `json:"analysis,omitempty"`
	Statistics     *analysis.Statistics       `json:"statistics,omitempty"`
	Insights       *analysis.InsightBundle    `json:"insights,omitempty"`
	Visualizations *analysis.Visualizations   `json:"visualizations,omitempty"`
	Predictions    *analysis.PredictiveScreen `json:"predictions,omitempty"`
}

// Failure builds a failure report.
func Failure(msg string, at time.Time) *AnalysisReport {
	return &AnalysisReport{Success: false, Error: msg, Timestamp: at.Format(TimestampLayout)}
}

// JSON returns the report as indented JSON.
func (r *AnalysisReport) JSON() ([]byte, error) {
	return utils.PrettyJSON(r)
}

// Decode parses a JSON report.
func Decode(b []byte) (*AnalysisReport, error) {
	var r AnalysisReport
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// Formats lists the accepted output formats.
var Formats = []string{"json", "markdown", "html"}

// Render encodes the report in the named format.
func (r *AnalysisReport) Render(format string) ([]byte, error) {
	switch format {
	case "", "json":
		return r.JSON()
	case "markdown", "md":
		return []byte(r.Markdown()), nil
	case "html":
		return r.HTML(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use json|markdown|html)", format)
	}
}
