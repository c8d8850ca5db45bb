package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const feedbackSchema = `
CREATE TABLE IF NOT EXISTS feedback_log (
    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
    id           TEXT NOT NULL UNIQUE,
    run_id       TEXT,
    decision     TEXT NOT NULL,
    record_json  TEXT NOT NULL,
    created_at   TEXT NOT NULL
);
`

// SQLiteLog keeps feedback in the feedback_log table. Each record is a single INSERT.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog initializes the feedback_log table and returns a SQLiteLog.
func NewSQLiteLog(db *sql.DB) (*SQLiteLog, error) {
	if _, err := db.Exec(feedbackSchema); err != nil {
		return nil, fmt.Errorf("migrate feedback_log: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Append inserts one record.
func (l *SQLiteLog) Append(ctx context.Context, rec FeedbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO feedback_log (id, run_id, decision, record_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, string(rec.Decision), string(data), rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	return nil
}

// List returns every record in insertion order.
func (l *SQLiteLog) List(ctx context.Context) ([]FeedbackRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT record_json FROM feedback_log ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec FeedbackRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode feedback row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
