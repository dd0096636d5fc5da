package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotInitialized is returned when the history tables do not exist yet.
var ErrNotInitialized = errors.New("run history is empty: run 'devboot' to record the first run")

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// classify maps SQLite's missing-table error onto ErrNotInitialized.
func classify(err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w (%v)", ErrNotInitialized, err)
	}
	return err
}

// Run operations

// RecordRun stores a run and its stage results in one transaction.
func (s *Store) RecordRun(run *Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, os, arch, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.OS,
		run.Arch,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, classify(err))
	}

	for i, stage := range run.Stages {
		_, err := tx.Exec(`
			INSERT INTO stage_results (run_id, position, stage, outcome, detail, version, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i+1,
			stage.Stage,
			stage.Outcome,
			stage.Detail,
			stage.Version,
			stage.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert stage %s: %w", stage.Stage, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, os, arch, error`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var run Run
	var startedAt, finishedAt string
	var arch, runErr sql.NullString

	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &run.OS, &arch, &runErr); err != nil {
		return nil, err
	}
	run.Arch = arch.String
	run.Error = runErr.String

	var err error
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %s: %w", run.ID, err)
	}
	run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun retrieves a run with its stages. id may be a unique prefix; it is
// compared literally, so % and _ are not wildcards.
func (s *Store) GetRun(id string) (*Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY started_at DESC LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, classify(err))
	}

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, run)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("run id %s is ambiguous", id)
	}

	run := matches[0]
	run.Stages, err = s.GetRunStages(run.ID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, with their stages.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", classify(err))
	}

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	// The single connection must be released before loading stages.
	rows.Close()

	for _, run := range runs {
		run.Stages, err = s.GetRunStages(run.ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRunStages returns the stage results of a run in pipeline order.
func (s *Store) GetRunStages(runID string) ([]StageRecord, error) {
	rows, err := s.db.Query(`
		SELECT position, stage, outcome, detail, version, duration_ms
		FROM stage_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stages for run %s: %w", runID, classify(err))
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var rec StageRecord
		var detail, version sql.NullString
		var durationMS sql.NullInt64

		if err := rows.Scan(&rec.Position, &rec.Stage, &rec.Outcome, &detail, &version, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		rec.Detail = detail.String
		rec.Version = version.String
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		stages = append(stages, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}
	return stages, nil
}

// LastInstalled returns when each stage last reported "installed", keyed by
// stage name.
func (s *Store) LastInstalled() (map[string]time.Time, error) {
	rows, err := s.db.Query(`
		SELECT sr.stage, MAX(r.finished_at)
		FROM stage_results sr
		JOIN runs r ON r.id = sr.run_id
		WHERE sr.outcome = 'installed'
		GROUP BY sr.stage
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query installs: %w", classify(err))
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var stage, finishedAt string
		if err := rows.Scan(&stage, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan install: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		result[stage] = t
	}
	return result, rows.Err()
}

// PruneRuns keeps the newest keep runs and deletes the rest. It returns the
// number of runs deleted.
func (s *Store) PruneRuns(keep int) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM runs
		WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", classify(err))
	}
	return res.RowsAffected()
}

// CountRuns returns the number of recorded runs.
func (s *Store) CountRuns() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", classify(err))
	}
	return n, nil
}
