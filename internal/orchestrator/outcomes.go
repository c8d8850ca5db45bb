package orchestrator

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// #endregion

// #region schema

const runOutcomesSchema = `
CREATE TABLE IF NOT EXISTS run_outcomes (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id           TEXT NOT NULL UNIQUE,
    request          TEXT NOT NULL,
    task_type        TEXT NOT NULL,
    complexity       REAL NOT NULL,
    risk             REAL NOT NULL,
    strictness       TEXT NOT NULL,
    plan_count       INTEGER NOT NULL,
    max_attempts     INTEGER NOT NULL,
    attempts         INTEGER NOT NULL,
    outcome          TEXT NOT NULL,
    reason           TEXT NOT NULL DEFAULT '',
    final_confidence REAL NOT NULL,
    severity         TEXT NOT NULL DEFAULT '',
    technical_issues TEXT NOT NULL DEFAULT '[]',
    taste_issues     TEXT NOT NULL DEFAULT '[]',
    created_at       TEXT NOT NULL
);
`

const runOutcomesIndex = `
CREATE INDEX IF NOT EXISTS idx_run_outcomes_type
ON run_outcomes(task_type, created_at);
`

// #endregion

// #region log-struct

// halfLifeHours is the decay constant for pass-rate weighting (7 days).
const halfLifeHours = 7.0 * 24.0

// minPassRateSamples is how many runs a task type needs before its rate is reported.
const minPassRateSamples = 3

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// OutcomeLog persists one row per run in SQLite and queries decay-weighted pass rates.
type OutcomeLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutcomeLog initializes the run_outcomes table and returns an OutcomeLog.
func NewOutcomeLog(db *sql.DB) (*OutcomeLog, error) {
	if _, err := db.Exec(runOutcomesSchema); err != nil {
		return nil, err
	}
	if _, err := db.Exec(runOutcomesIndex); err != nil {
		return nil, err
	}
	return &OutcomeLog{db: db, now: time.Now}, nil
}

// #endregion

// #region record

// Record persists a single run outcome row.
func (l *OutcomeLog) Record(ctx context.Context, rec OutcomeRecord) error {
	tech, err := json.Marshal(orEmpty(rec.TechnicalIssues))
	if err != nil {
		return err
	}
	taste, err := json.Marshal(orEmpty(rec.TasteIssues))
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now()
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO run_outcomes
		(run_id, request, task_type, complexity, risk, strictness, plan_count, max_attempts,
		 attempts, outcome, reason, final_confidence, severity, technical_issues, taste_issues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Request,
		string(rec.TaskType),
		rec.Complexity,
		rec.Risk,
		string(rec.Strictness),
		rec.PlanCount,
		rec.MaxAttempts,
		rec.Attempts,
		string(rec.Outcome),
		rec.Reason,
		rec.FinalConfidence,
		rec.Severity,
		string(tech),
		string(taste),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// #endregion

// #region read

const outcomeColumns = `run_id, request, task_type, complexity, risk, strictness, plan_count, max_attempts,
	attempts, outcome, reason, final_confidence, severity, technical_issues, taste_issues, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOutcome(s scanner) (OutcomeRecord, error) {
	var rec OutcomeRecord
	var taskType, strictness, outcome, tech, taste, created string
	err := s.Scan(&rec.RunID, &rec.Request, &taskType, &rec.Complexity, &rec.Risk, &strictness,
		&rec.PlanCount, &rec.MaxAttempts, &rec.Attempts, &outcome, &rec.Reason, &rec.FinalConfidence,
		&rec.Severity, &tech, &taste, &created)
	if err != nil {
		return OutcomeRecord{}, err
	}
	rec.TaskType = TaskType(taskType)
	rec.Strictness = Strictness(strictness)
	rec.Outcome = Outcome(outcome)
	if err := json.Unmarshal([]byte(tech), &rec.TechnicalIssues); err != nil {
		return OutcomeRecord{}, fmt.Errorf("decode technical issues: %w", err)
	}
	if err := json.Unmarshal([]byte(taste), &rec.TasteIssues); err != nil {
		return OutcomeRecord{}, fmt.Errorf("decode taste issues: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return rec, nil
}

// Get returns the outcome of one run.
func (l *OutcomeLog) Get(ctx context.Context, runID string) (OutcomeRecord, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+outcomeColumns+` FROM run_outcomes WHERE run_id = ?`, runID)
	rec, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return OutcomeRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return rec, err
}

// Recent returns up to limit outcomes, newest first.
func (l *OutcomeLog) Recent(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+outcomeColumns+` FROM run_outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion

// #region pass-rate

// PassRate is the decay-weighted share of passing runs for one task type.
type PassRate struct {
	TaskType TaskType
	Rate     float64
	Samples  int
}

// PassRates returns the decay-weighted pass rate per task type. Types with
// fewer than three runs are omitted.
func (l *OutcomeLog) PassRates(ctx context.Context) ([]PassRate, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT task_type, outcome, created_at
		FROM run_outcomes
		ORDER BY task_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type accum struct {
		weightedSum float64
		totalWeight float64
		count       int
	}

	now := l.now()
	byType := make(map[TaskType]*accum)
	var order []TaskType

	for rows.Next() {
		var taskType, outcome, createdAtStr string
		if err := rows.Scan(&taskType, &outcome, &createdAtStr); err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			continue
		}
		weight := math.Exp(-now.Sub(createdAt).Hours() / halfLifeHours)

		tt := TaskType(taskType)
		a, ok := byType[tt]
		if !ok {
			a = &accum{}
			byType[tt] = a
			order = append(order, tt)
		}
		if Outcome(outcome) == OutcomePassed {
			a.weightedSum += weight
		}
		a.totalWeight += weight
		a.count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []PassRate
	for _, tt := range order {
		a := byType[tt]
		if a.count < minPassRateSamples || a.totalWeight == 0 {
			continue
		}
		out = append(out, PassRate{TaskType: tt, Rate: round2(a.weightedSum / a.totalWeight), Samples: a.count})
	}
	return out, nil
}

// #endregion
