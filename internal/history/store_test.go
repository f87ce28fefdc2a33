package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mediscan-ai/mediscan/internal/analysis"
)

func newTestStore(t *testing.T, retention int) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "history.json"), retention)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func record(id string) *analysis.Record {
	return &analysis.Record{
		ID:        id,
		FileName:  id + ".png",
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

func TestAppendAndList(t *testing.T) {
	s := newTestStore(t, 10)

	for i := 0; i < 5; i++ {
		if err := s.Append(record(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	page, total, err := s.List(1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(page) != 2 || page[0].ID != "r1" || page[1].ID != "r2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	// Offset past the end is an empty page, not an error.
	page, total, err = s.List(99, 10)
	if err != nil || total != 5 || len(page) != 0 {
		t.Fatalf("list past end: page=%v total=%d err=%v", page, total, err)
	}
}

func TestRetentionDropsExactlyOldest(t *testing.T) {
	s := newTestStore(t, 1000)

	for i := 0; i < 1000; i++ {
		if err := s.Append(record(fmt.Sprintf("r%04d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := s.Append(record("r1000")); err != nil {
		t.Fatalf("append 1001st: %v", err)
	}

	page, total, err := s.List(0, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1000 {
		t.Fatalf("total = %d, want 1000", total)
	}
	if page[0].ID != "r0001" {
		t.Fatalf("oldest surviving record = %s, want r0001", page[0].ID)
	}
	if page[len(page)-1].ID != "r1000" {
		t.Fatalf("newest record = %s, want r1000", page[len(page)-1].ID)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 10)
	if err := s.Append(record("keep")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(record("gone")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.Delete("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, total, _ := s.List(0, -1)
	if total != 1 {
		t.Fatalf("total after delete = %d, want 1", total)
	}

	if err := s.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting an absent id should report ErrNotFound, got %v", err)
	}
}

func TestPersistedShapeIsAJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	s, err := NewStore(path, 10)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Append(record("r1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var arr []map[string]any
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Fatalf("history file is not a JSON array: %v", err)
	}
	if len(arr) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(arr))
	}
	if arr[0]["analysis_id"] != "r1" {
		t.Fatalf("public field names expected in the file, got %v", arr[0])
	}
}

func TestAppenderDeliversInBackground(t *testing.T) {
	s := newTestStore(t, 10)
	a := NewAppender(AppenderConfig{QueueSize: 8, Workers: 1, ShutdownTimeout: time.Second}, s, nil)

	for i := 0; i < 3; i++ {
		a.Enqueue(record(fmt.Sprintf("r%d", i)))
	}
	a.Close(context.Background())

	_, total, err := s.List(0, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 appended records, got %d", total)
	}
	m := a.MetricsSnapshot()
	if m.Enqueued() != 3 || m.Appended() != 3 || m.Dropped() != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestAppenderDropsWhenQueueFullAfterClose(t *testing.T) {
	s := newTestStore(t, 10)
	a := NewAppender(AppenderConfig{QueueSize: 1, Workers: 1, ShutdownTimeout: time.Second}, s, nil)
	a.Close(context.Background())

	a.Enqueue(record("late"))
	m := a.MetricsSnapshot()
	if m.Dropped() != 1 {
		t.Fatalf("record enqueued after close should be dropped, metrics: %+v", m)
	}
}
