package logging

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE provenance_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		attempt      INTEGER NOT NULL,
		checkpoint   TEXT NOT NULL,
		signals_json TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		urgency      TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:       "r1",
		Attempt:     1,
		Checkpoint:  "post",
		SignalsJSON: `{"risk":0.44}`,
		Decision:    "escalate",
		Reason:      "fatal-taste-failure",
		Urgency:     "high",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(context.Background(), db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var runID, reason string
	db.QueryRow("SELECT run_id, reason FROM provenance_log").Scan(&runID, &reason)
	if runID != "r1" {
		t.Errorf("expected run_id 'r1', got %q", runID)
	}
	if reason != "fatal-taste-failure" {
		t.Errorf("expected reason 'fatal-taste-failure', got %q", reason)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogDecision(context.Background(), db, ProvenanceEntry{
		RunID: "r2", Checkpoint: "pre", Decision: "continue", Urgency: "low",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := LogDecision(context.Background(), db, ProvenanceEntry{
		RunID: "r3", Attempt: 0, Checkpoint: "pre", Decision: "continue", Urgency: "low",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var signalsJSON, reason sql.NullString
	db.QueryRow("SELECT signals_json, reason FROM provenance_log").Scan(&signalsJSON, &reason)
	if signalsJSON.Valid {
		t.Error("expected NULL signals_json for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogDecision(context.Background(), db, ProvenanceEntry{RunID: "r4", Decision: "escalate", Urgency: "high"})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-decision-tests

// #region list-decisions-tests
func TestListDecisions_InOrder(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, e := range []ProvenanceEntry{
		{RunID: "r1", Attempt: 0, Checkpoint: "pre", Decision: "continue", Urgency: "low"},
		{RunID: "other", Attempt: 0, Checkpoint: "pre", Decision: "continue", Urgency: "low"},
		{RunID: "r1", Attempt: 1, Checkpoint: "post", Decision: "escalate", Reason: "max-attempts-exceeded", Urgency: "high"},
	} {
		if err := LogDecision(ctx, db, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ListDecisions(ctx, db, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Checkpoint != "pre" || got[1].Reason != "max-attempts-exceeded" {
		t.Errorf("unexpected entries: %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected created_at to round-trip")
	}
}

// #endregion list-decisions-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
