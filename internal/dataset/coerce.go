package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Options controls how tabular files are read and coerced.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the extension and header line.
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{}
}

var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"1.#IND": {}, "1.#QNAN": {}, "-1.#IND": {}, "-1.#QNAN": {},
}

// IsNullToken reports whether a trimmed cell should be read as null.
func IsNullToken(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// ParseNumber parses a cell as a finite number using the locale options.
func ParseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normalizeHeader trims names, fills blanks and de-duplicates with numeric suffixes.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				cand := fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[cand]; !taken {
					seen[base] = n
					name = cand
					break
				}
			}
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

// FromRecords builds a dataset from a header and raw string records. A column
// is numeric iff every non-null cell parses as a number.
func FromRecords(header []string, records [][]string, opt Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrNoHeader
	}
	names := normalizeHeader(header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		cells := make([]string, len(records))
		isNull := make([]bool, len(records))
		nums := make([]float64, len(records))
		numeric := true
		for i, rec := range records {
			var cell string
			if j < len(rec) {
				cell = strings.TrimSpace(rec[j])
			}
			cells[i] = cell
			if IsNullToken(cell) {
				isNull[i] = true
				continue
			}
			if numeric {
				v, ok := ParseNumber(cell, opt)
				if !ok {
					numeric = false
					continue
				}
				nums[i] = v
			}
		}
		col := &Column{Name: name, valid: make([]bool, len(records))}
		if numeric {
			col.Kind = Numeric
			col.nums = nums
		} else {
			col.Kind = Categorical
			col.labels = cells
		}
		for i := range records {
			col.valid[i] = !isNull[i]
			if isNull[i] && !numeric {
				col.labels[i] = ""
			}
		}
		cols[j] = col
	}
	return New(cols...)
}
