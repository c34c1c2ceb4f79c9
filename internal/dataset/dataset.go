package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Numeric, Categorical:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown column kind %d", int(k))
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*k = Numeric
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("unknown column kind %q", string(b))
	}
	return nil
}

var (
	// ErrColumnLength is returned when columns of a dataset differ in length.
	ErrColumnLength = errors.New("columns must have equal length")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Column holds one named, nullable column. Exactly one of nums or labels is
// populated, selected by Kind.
type Column struct {
	Name string
	Kind Kind

	nums   []float64
	labels []string
	valid  []bool
}

// NewNumeric builds a numeric column. NaN entries are treated as null.
func NewNumeric(name string, values []float64) *Column {
	c := &Column{Name: name, Kind: Numeric, nums: make([]float64, len(values)), valid: make([]bool, len(values))}
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		c.nums[i] = v
		c.valid[i] = true
	}
	return c
}

// NewCategorical builds a categorical column. Empty strings are treated as null.
func NewCategorical(name string, values []string) *Column {
	c := &Column{Name: name, Kind: Categorical, labels: make([]string, len(values)), valid: make([]bool, len(values))}
	for i, v := range values {
		if v == "" {
			continue
		}
		c.labels[i] = v
		c.valid[i] = true
	}
	return c
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.valid) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// Float returns the numeric value at row i (0 for null or categorical cells).
func (c *Column) Float(i int) float64 {
	if c.Kind != Numeric || !c.valid[i] {
		return 0
	}
	return c.nums[i]
}

// Label returns the label at row i ("" for null or numeric cells).
func (c *Column) Label(i int) string {
	if c.Kind != Categorical || !c.valid[i] {
		return ""
	}
	return c.labels[i]
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Labels returns the non-null labels in row order.
func (c *Column) Labels() []string {
	if c.Kind != Categorical {
		return nil
	}
	out := make([]string, 0, len(c.labels))
	for i, v := range c.labels {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// UniqueCount returns the number of distinct non-null values.
func (c *Column) UniqueCount() int {
	seen := make(map[string]struct{})
	for i := range c.valid {
		if c.valid[i] {
			seen[c.key(i)] = struct{}{}
		}
	}
	return len(seen)
}

// Integral reports whether the column is numeric, has no nulls and holds
// only whole numbers.
func (c *Column) Integral() bool {
	if c.Kind != Numeric {
		return false
	}
	for i, v := range c.nums {
		if !c.valid[i] || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return false
		}
	}
	return true
}

func (c *Column) key(i int) string {
	if !c.valid[i] {
		return "\x00"
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	}
	return c.labels[i]
}

// subset returns a copy of the column restricted to the given rows.
func (c *Column) subset(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, valid: make([]bool, len(rows))}
	if c.Kind == Numeric {
		out.nums = make([]float64, len(rows))
	} else {
		out.labels = make([]string, len(rows))
	}
	for j, i := range rows {
		out.valid[j] = c.valid[i]
		if c.Kind == Numeric {
			out.nums[j] = c.nums[i]
		} else {
			out.labels[j] = c.labels[i]
		}
	}
	return out
}

// ColumnProfile summarizes one column for the explore stage.
type ColumnProfile struct {
	Name        string  `json:"name"`
	Kind        Kind    `json:"kind"`
	NullCount   int     `json:"null_count"`
	NullRatio   float64 `json:"null_ratio"`
	UniqueCount int     `json:"unique_count"`
}

// Profile computes the column's profile.
func (c *Column) Profile() ColumnProfile {
	p := ColumnProfile{Name: c.Name, Kind: c.Kind, NullCount: c.NullCount(), UniqueCount: c.UniqueCount()}
	if n := c.Len(); n > 0 {
		p.NullRatio = float64(p.NullCount) / float64(n)
	}
	return p
}

// Dataset is an ordered, row-aligned set of columns. It is not modified once built.
type Dataset struct {
	// Path and Format describe where the data came from; both may be empty.
	Path   string
	Format string

	cols []*Column
	rows int
}

// New assembles a dataset, validating equal column lengths and unique names.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{cols: cols}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			d.rows = c.Len()
			continue
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrColumnLength, c.Name, c.Len(), d.rows)
		}
	}
	return d, nil
}

// MustNew is New for literals in tests and fixtures; it panics on error.
func MustNew(cols ...*Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Width returns the column count.
func (d *Dataset) Width() int { return len(d.cols) }

// Columns returns the columns in dataset order.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// NullCells returns the total number of null cells.
func (d *Dataset) NullCells() int {
	n := 0
	for _, c := range d.cols {
		n += c.NullCount()
	}
	return n
}

// RowKey returns a string identifying the values of row i; equal rows have
// equal keys, and nulls compare equal to each other. Each cell is length
// prefixed, so no label content can make two different rows collide.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for _, c := range d.cols {
		if c.IsNull(i) {
			b.WriteByte('-')
			continue
		}
		k := c.key(i)
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

func (d *Dataset) selectRows(rows []int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.subset(rows)
	}
	return &Dataset{Path: d.Path, Format: d.Format, cols: cols, rows: len(rows)}
}
