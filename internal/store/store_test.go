package store

import (
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_CreatesProvenanceTable(t *testing.T) {
	s, _ := tempDB(t)

	var name string
	err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='provenance_log'`).Scan(&name)
	if err != nil {
		t.Fatalf("provenance_log missing: %v", err)
	}
}

func TestOpen_WALMode(t *testing.T) {
	s, _ := tempDB(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	s, path := tempDB(t)
	if _, err := s.DB().Exec(
		`INSERT INTO provenance_log (run_id, attempt, checkpoint, decision, urgency, created_at)
		 VALUES ('r1', 1, 'post', 'escalate', 'high', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	var count int
	again.DB().QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected row to survive reopen, got %d", count)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count); err != nil {
		t.Fatalf("schema not visible on pooled connection: %v", err)
	}
}
