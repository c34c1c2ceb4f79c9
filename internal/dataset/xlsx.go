package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool { return hasExt(path, ".xlsx", ".xlsm") }

func (xlsxReader) Format(string) string { return "xlsx" }

// Read returns raw (unformatted) cell values so numbers survive display formats.
func (xlsxReader) Read(path string, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, ErrNoHeader
		}
		sheet = sheets[0]
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	var records [][]string
	for rows.Next() {
		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q row %d: %w", sheet, len(records)+2, err)
		}
		if header == nil {
			if len(row) == 0 {
				continue
			}
			header = row
			continue
		}
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		records = append(records, row)
	}
	if err := rows.Error(); err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if header == nil {
		return nil, nil, ErrNoHeader
	}
	return header, records, nil
}
