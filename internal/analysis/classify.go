package analysis

import "github.com/KaramelBytes/datalens-cli/internal/dataset"

// Columns is the numeric/categorical partition of a dataset, in dataset order.
// It is computed once per run and handed to every later stage.
type Columns struct {
	Numeric     []*dataset.Column
	Categorical []*dataset.Column
}

// Classify partitions columns by their declared kind.
func Classify(ds *dataset.Dataset) Columns {
	var out Columns
	for _, c := range ds.Columns() {
		switch c.Kind {
		case dataset.Numeric:
			out.Numeric = append(out.Numeric, c)
		default:
			out.Categorical = append(out.Categorical, c)
		}
	}
	return out
}

// NumericNames returns the numeric column names.
func (c Columns) NumericNames() []string { return names(c.Numeric) }

// CategoricalNames returns the categorical column names.
func (c Columns) CategoricalNames() []string { return names(c.Categorical) }

func names(cols []*dataset.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func head(cols []*dataset.Column, n int) []*dataset.Column {
	if n < len(cols) {
		return cols[:n]
	}
	return cols
}
