package analysis

import "github.com/KaramelBytes/datalens-cli/internal/dataset"

// QualitySignals summarizes completeness, duplication and cardinality.
type QualitySignals struct {
	CompletenessScore      float64  `json:"completeness_score"`
	DuplicateRows          int      `json:"duplicate_rows"`
	ColumnsWithMissingData []string `json:"columns_with_missing_data"`
	HighCardinalityColumns []string `json:"high_cardinality_columns"`
}

// ScoreQuality computes quality signals. An empty dataset is fully complete.
func ScoreQuality(ds *dataset.Dataset, cols Columns, th Thresholds) QualitySignals {
	q := QualitySignals{
		CompletenessScore:      100,
		ColumnsWithMissingData: []string{},
		HighCardinalityColumns: []string{},
	}
	if cells := ds.Rows() * ds.Width(); cells > 0 {
		q.CompletenessScore = (1 - float64(ds.NullCells())/float64(cells)) * 100
	}

	seen := make(map[string]struct{}, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		k := ds.RowKey(i)
		if _, dup := seen[k]; dup {
			q.DuplicateRows++
			continue
		}
		seen[k] = struct{}{}
	}

	for _, c := range ds.Columns() {
		if c.NullCount() > 0 {
			q.ColumnsWithMissingData = append(q.ColumnsWithMissingData, c.Name)
		}
	}
	limit := float64(ds.Rows()) * th.HighCardinalityRatio
	for _, c := range cols.Categorical {
		if float64(c.UniqueCount()) > limit {
			q.HighCardinalityColumns = append(q.HighCardinalityColumns, c.Name)
		}
	}
	return q
}
