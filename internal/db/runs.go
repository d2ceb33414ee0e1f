package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/rodeval/internal/eval"
	"github.com/banshee-data/rodeval/internal/timeutil"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted evaluation of a submission directory.
type Run struct {
	RunID      string              `json:"run_id"`
	SubmitDir  string              `json:"submit_dir"`
	TruthDir   string              `json:"truth_dir"`
	Format     string              `json:"format"`
	Sequences  int                 `json:"sequences"`
	Frames     int                 `json:"frames"`
	Records    int                 `json:"records"`
	Full       bool                `json:"full"`
	Summary    []float64           `json:"summary"`
	Breakdown  []eval.ClassSummary `json:"breakdown,omitempty"`
	Options    json.RawMessage     `json:"options,omitempty"`
	DurationMs int64               `json:"duration_ms"`
	Note       string              `json:"note,omitempty"`
	CreatedAt  int64               `json:"created_at"` // unix nanoseconds
}

// RunStore provides persistence for evaluation runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db, clock: timeutil.RealClock{}}
}

// WithClock sets the clock used for timestamps and busy backoff.
func (s *RunStore) WithClock(c timeutil.Clock) *RunStore {
	s.clock = c
	return s
}

// Insert persists a run. If RunID is empty a UUID is generated; a zero
// CreatedAt is set to now.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	var breakdown, options interface{}
	if len(run.Breakdown) > 0 {
		b, err := json.Marshal(run.Breakdown)
		if err != nil {
			return fmt.Errorf("encode breakdown: %w", err)
		}
		breakdown = string(b)
	}
	if len(run.Options) > 0 {
		options = string(run.Options)
	}

	return retryOnBusy(s.clock, func() error {
		_, err := s.db.Exec(`
			INSERT INTO eval_runs (
				run_id, submit_dir, truth_dir, format, sequences, frames, records,
				full_report, summary_json, breakdown_json, options_json, duration_ms,
				note, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.SubmitDir, run.TruthDir, run.Format, run.Sequences, run.Frames, run.Records,
			run.Full, string(summary), breakdown, options, run.DurationMs,
			run.Note, run.CreatedAt,
		)
		return err
	})
}

const runColumns = `
	run_id, submit_dir, truth_dir, format, sequences, frames, records,
	full_report, summary_json, breakdown_json, options_json, duration_ms,
	note, created_at`

// Get returns a single run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM eval_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM eval_runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run by id.
func (s *RunStore) Delete(runID string) error {
	var affected int64
	err := retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`DELETE FROM eval_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                  Run
		summary            string
		breakdown, options sql.NullString
	)
	err := row.Scan(
		&r.RunID, &r.SubmitDir, &r.TruthDir, &r.Format, &r.Sequences, &r.Frames, &r.Records,
		&r.Full, &summary, &breakdown, &options, &r.DurationMs,
		&r.Note, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return nil, fmt.Errorf("decode summary of run %s: %w", r.RunID, err)
	}
	if breakdown.Valid {
		if err := json.Unmarshal([]byte(breakdown.String), &r.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown of run %s: %w", r.RunID, err)
		}
	}
	if options.Valid {
		r.Options = json.RawMessage(options.String)
	}
	return &r, nil
}
