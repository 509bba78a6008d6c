package db

import (
	"database/sql"
	"fmt"
	"time"
)

// JobDefinition is a persisted scheduled job
type JobDefinition struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	ActionType   string     `json:"action_type"`
	ScheduleKind string     `json:"schedule_kind"`
	ScheduleExpr string     `json:"schedule_expr"`
	Timezone     string     `json:"timezone"`
	PayloadJSON  string     `json:"payload"`
	Enabled      bool       `json:"enabled"`
	LastRunAt    *time.Time `json:"last_run_at"`
	NextRunAt    *time.Time `json:"next_run_at"`
}

// CreateJob persists a new job definition and returns its id
func (r *Repository) CreateJob(def *JobDefinition) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO jobs (name, action_type, schedule_kind, schedule_expr, timezone, payload, enabled, next_run_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		def.Name, def.ActionType, def.ScheduleKind, def.ScheduleExpr, def.Timezone,
		def.PayloadJSON, def.Enabled, nullableTime(def.NextRunAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get job id: %w", err)
	}
	return id, nil
}

// GetJobByID returns a job definition, or nil if it does not exist
func (r *Repository) GetJobByID(id int64) (*JobDefinition, error) {
	row := r.db.QueryRow(
		`SELECT id, name, action_type, schedule_kind, schedule_expr, timezone, payload, enabled, last_run_at, next_run_at
		 FROM jobs WHERE id = ?`, id,
	)
	def, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return def, nil
}

// ListJobs returns all job definitions
func (r *Repository) ListJobs() ([]JobDefinition, error) {
	rows, err := r.db.Query(
		`SELECT id, name, action_type, schedule_kind, schedule_expr, timezone, payload, enabled, last_run_at, next_run_at
		 FROM jobs ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var defs []JobDefinition
	for rows.Next() {
		def, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// UpdateJob rewrites an existing job definition
func (r *Repository) UpdateJob(def *JobDefinition) error {
	_, err := r.db.Exec(
		`UPDATE jobs SET name = ?, action_type = ?, schedule_kind = ?, schedule_expr = ?, timezone = ?,
		 payload = ?, enabled = ?, next_run_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		def.Name, def.ActionType, def.ScheduleKind, def.ScheduleExpr, def.Timezone,
		def.PayloadJSON, def.Enabled, nullableTime(def.NextRunAt), def.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// TriggerJobNow makes a job due immediately
func (r *Repository) TriggerJobNow(id int64, now time.Time) error {
	_, err := r.db.Exec(
		`UPDATE jobs SET enabled = 1, next_run_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		now.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to trigger job: %w", err)
	}
	return nil
}

// ClaimDueJobs atomically takes up to limit due jobs off the schedule.
// Claimed jobs have next_run_at cleared so a concurrent claimer cannot
// pick them up again; the executor sets the next run on completion.
func (r *Repository) ClaimDueJobs(now time.Time, limit int) ([]JobDefinition, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		`SELECT id, name, action_type, schedule_kind, schedule_expr, timezone, payload, enabled, last_run_at, next_run_at
		 FROM jobs WHERE enabled = 1 AND next_run_at IS NOT NULL AND next_run_at <= ?
		 ORDER BY next_run_at ASC LIMIT ?`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select due jobs: %w", err)
	}

	var defs []JobDefinition
	for rows.Next() {
		def, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan due job: %w", err)
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, def := range defs {
		if _, err := tx.Exec(`UPDATE jobs SET next_run_at = NULL WHERE id = ?`, def.ID); err != nil {
			return nil, fmt.Errorf("failed to claim job %d: %w", def.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return defs, nil
}

// InsertJobRun records the start of a job execution
func (r *Repository) InsertJobRun(jobID int64, startedAt time.Time) (int64, error) {
	res, err := r.db.Exec(
		`INSERT INTO job_runs (job_id, status, started_at) VALUES (?, 'running', ?)`,
		jobID, startedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get job run id: %w", err)
	}
	return id, nil
}

// CompleteJobRun finalizes a run and reschedules (or disables) the job
func (r *Repository) CompleteJobRun(runID, jobID int64, status, runErr, output string, finishedAt time.Time, enabled bool, lastRun time.Time, nextRun *time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin run completion: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE job_runs SET status = ?, error = ?, output = ?, finished_at = ? WHERE id = ?`,
		status, runErr, output, finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize job run: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE jobs SET enabled = ?, last_run_at = ?, next_run_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		enabled, lastRun.UTC(), nullableTime(nextRun), jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*JobDefinition, error) {
	var def JobDefinition
	var lastRun, nextRun sql.NullTime
	err := row.Scan(
		&def.ID, &def.Name, &def.ActionType, &def.ScheduleKind, &def.ScheduleExpr,
		&def.Timezone, &def.PayloadJSON, &def.Enabled, &lastRun, &nextRun,
	)
	if err != nil {
		return nil, err
	}
	if lastRun.Valid {
		t := lastRun.Time.UTC()
		def.LastRunAt = &t
	}
	if nextRun.Valid {
		t := nextRun.Time.UTC()
		def.NextRunAt = &t
	}
	return &def, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
