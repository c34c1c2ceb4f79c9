package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reader loads one tabular file format into a header and raw records.
type Reader interface {
	// Format is the short format name reported in file metadata.
	Format(path string) string
	CanRead(path string) bool
	Read(path string, opt Options) (header []string, records [][]string, err error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

var (
	// ErrUnsupportedFormat indicates no registered reader accepts the file.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader indicates the file has no header row.
	ErrNoHeader = errors.New("no header row")
)

// Load reads path with the first matching reader and infers column kinds.
func Load(path string, opt Options) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	for _, r := range registry {
		if !r.CanRead(path) {
			continue
		}
		header, records, err := r.Read(path, opt)
		if err != nil {
			return nil, err
		}
		ds, err := FromRecords(header, records, opt)
		if err != nil {
			return nil, fmt.Errorf("build dataset: %w", err)
		}
		if abs, err := filepath.Abs(path); err == nil {
			ds.Path = abs
		} else {
			ds.Path = path
		}
		ds.Format = r.Format(path)
		return ds, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// Supported reports whether some registered reader accepts the file name.
func Supported(name string) bool {
	for _, r := range registry {
		if r.CanRead(name) {
			return true
		}
	}
	return false
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}
