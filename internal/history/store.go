// Package history keeps the append-only analysis log: a single JSON array
// file, rewritten whole on every mutation. The bounded retention (newest 1000
// records) keeps the whole-file round-trip cheap.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mediscan-ai/mediscan/internal/analysis"
)

// ErrNotFound is returned by Delete when no record matches the id.
var ErrNotFound = errors.New("history record not found")

// DefaultRetention is the maximum number of records kept.
const DefaultRetention = 1000

// Store round-trips records to one JSON file. Mutations are serialized by an
// internal mutex; each one reads the whole file, mutates, and rewrites it
// atomically through a temp-file rename.
type Store struct {
	path      string
	retention int

	mu sync.Mutex
}

// NewStore creates a Store backed by path. A missing file reads as empty.
func NewStore(path string, retention int) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{path: path, retention: retention}, nil
}

// Append adds a record at the end and trims to the newest `retention` entries.
// Trimming happens on every append, not periodically.
func (s *Store) Append(rec *analysis.Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, *rec)
	if excess := len(records) - s.retention; excess > 0 {
		records = records[excess:]
	}
	return s.save(records)
}

// List returns the slice [offset, offset+limit) in insertion order and the
// total count before slicing.
func (s *Store) List(offset, limit int) ([]analysis.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, 0, err
	}
	total := len(records)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit >= 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]analysis.Record, end-offset)
	copy(page, records[offset:end])
	return page, total, nil
}

// Delete removes every record matching id (expected zero or one). A missing
// id reports ErrNotFound; callers treat that as "not found", not a fault.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	removed := 0
	for _, r := range records {
		if r.ID == id {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return s.save(kept)
}

func (s *Store) load() ([]analysis.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	var records []analysis.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

func (s *Store) save(records []analysis.Record) error {
	if records == nil {
		records = []analysis.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "history.json.tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
