package cli

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// newTestHistory builds a history backed by an in-memory sqlite database
// with the same schema openHistory creates, so record/close can be
// exercised without touching the real user home directory.
func newTestHistory(t *testing.T) *history {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %s", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL
	)`); err != nil {
		t.Fatalf("creating schema: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	return &history{db: db}
}

func TestHistoryRecordsLines(t *testing.T) {
	h := newTestHistory(t)
	h.record("(+ 1 2)")
	h.record("(display \"hi\")")

	var count int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
		t.Fatalf("querying count: %s", err)
	}
	if count != 2 {
		t.Errorf("got %d recorded lines, want 2", count)
	}
}

func TestNilHistoryRecordIsANoOp(t *testing.T) {
	var h *history
	h.record("should not panic")
	h.close()
}
