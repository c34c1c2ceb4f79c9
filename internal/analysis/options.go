package analysis

// VeryStrongCorrelation is the |r| above which a strong pair is labelled very_strong.
const VeryStrongCorrelation = 0.9

// Thresholds tunes the rule set. Zero values are not meaningful; start from
// DefaultThresholds.
type Thresholds struct {
	// StrongCorrelation is the |r| a pair must exceed to be reported.
	StrongCorrelation float64
	// FindingMissingRatio and RiskMissingRatio are null ratios a column must
	// exceed to appear in the missing-value finding and risk.
	FindingMissingRatio float64
	RiskMissingRatio    float64
	// HighVarianceCV is the coefficient of variation above which a numeric
	// column is a risk.
	HighVarianceCV float64
	// SegmentMin and SegmentMax bound the distinct count of a categorical
	// column suggested for segmentation.
	SegmentMin, SegmentMax int
	// HighCardinalityRatio is the distinct/rows ratio a categorical column
	// must exceed to be flagged.
	HighCardinalityRatio float64
	// PredictiveMinRows is the fewest complete rows the predictive screen accepts.
	PredictiveMinRows int
	MaxFeatures       int

	FindingColumns   int
	KPIColumns       int
	HistogramColumns int
	BarColumns       int
	HistogramBins    int
	TopFrequent      int
	FrequencyTable   int
}

// DefaultThresholds returns the standard rule configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongCorrelation:    0.7,
		FindingMissingRatio:  0.1,
		RiskMissingRatio:     0.2,
		HighVarianceCV:       1,
		SegmentMin:           2,
		SegmentMax:           10,
		HighCardinalityRatio: 0.9,
		PredictiveMinRows:    10,
		MaxFeatures:          3,
		FindingColumns:       3,
		KPIColumns:           5,
		HistogramColumns:     3,
		BarColumns:           2,
		HistogramBins:        10,
		TopFrequent:          5,
		FrequencyTable:       10,
	}
}
