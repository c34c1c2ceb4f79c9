// Package history keeps analysis reports on disk, one JSON file per report.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datalens-cli/internal/report"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

const fileExt = ".json"

// ErrNotFound is returned for unknown or malformed report ids.
var ErrNotFound = errors.New("report not found")

// Entry is one stored report.
type Entry struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	CreatedAt time.Time              `json:"created_at"`
	Report    *report.AnalysisReport `json:"report"`
}

// Summary is the listing view of an entry.
type Summary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Success   bool      `json:"success"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Domain    string    `json:"domain,omitempty"`
}

// Store is a directory of report files. Distinct ids never share a file, so
// concurrent Saves are safe.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Save stores r under a new id. source is the name the input was known by.
func (s *Store) Save(source string, r *report.AnalysisReport) (*Entry, error) {
	if r == nil {
		return nil, errors.New("nil report")
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	e := &Entry{ID: uuid.NewString(), Source: source, CreatedAt: s.now().UTC(), Report: r}
	data, err := utils.PrettyJSON(e)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(s.path(e.ID), data); err != nil {
		return nil, err
	}
	return e, nil
}

// Get loads one entry.
func (s *Store) Get(id string) (*Entry, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", id, err)
	}
	return &e, nil
}

// List returns summaries, newest first. A missing directory is an empty store.
func (s *Store) List() ([]Summary, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("read history dir: %w", err)
	}
	out := make([]Summary, 0, len(ents))
	for _, de := range ents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		e, err := s.Get(strings.TrimSuffix(name, fileExt))
		if err != nil {
			// skip foreign or damaged files
			continue
		}
		out = append(out, e.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes one entry.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Summary condenses the entry for listings.
func (e *Entry) Summary() Summary {
	s := Summary{ID: e.ID, Source: e.Source, CreatedAt: e.CreatedAt}
	if r := e.Report; r != nil {
		s.Success = r.Success
		if r.FileInfo != nil {
			s.Rows, s.Columns = r.FileInfo.Rows, r.FileInfo.Columns
		}
		if r.Analysis != nil {
			s.Domain = r.Analysis.DomainLabel()
		}
	}
	return s
}

func (s *Store) path(id string) string { return filepath.Join(s.dir, id+fileExt) }

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && !strings.ContainsAny(id, `/\.`)
}
