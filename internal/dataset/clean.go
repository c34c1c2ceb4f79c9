package dataset

// Clean returns a copy of d without rows whose cells are all null and without
// columns whose cells are all null. Duplicate rows are kept.
func Clean(d *Dataset) *Dataset {
	var keepCols []*Column
	for _, c := range d.cols {
		if d.rows == 0 || c.NullCount() < d.rows {
			keepCols = append(keepCols, c)
		}
	}
	trimmed := &Dataset{Path: d.Path, Format: d.Format, cols: keepCols, rows: d.rows}
	if len(keepCols) == 0 {
		trimmed.rows = 0
		return trimmed
	}
	rows := make([]int, 0, d.rows)
	for i := 0; i < d.rows; i++ {
		for _, c := range keepCols {
			if c.valid[i] {
				rows = append(rows, i)
				break
			}
		}
	}
	return trimmed.selectRows(rows)
}
