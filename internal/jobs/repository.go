package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garnizeh/pawfect/internal/db"
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

type jobRow struct {
	ID          int64          `db:"id"`
	Type        string         `db:"type"`
	Payload     string         `db:"payload"`
	Status      string         `db:"status"`
	Attempts    int            `db:"attempts"`
	MaxAttempts int            `db:"max_attempts"`
	ScheduledAt int64          `db:"scheduled_at"`
	LastError   sql.NullString `db:"last_error"`
	Created     int64          `db:"created"`
	Updated     int64          `db:"updated"`
}

func (r jobRow) job() *Job {
	return &Job{
		ID:          r.ID,
		Type:        r.Type,
		Payload:     json.RawMessage(r.Payload),
		Status:      r.Status,
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		ScheduledAt: time.UnixMilli(r.ScheduledAt),
		LastError:   r.LastError.String,
		Created:     time.UnixMilli(r.Created),
		Updated:     time.UnixMilli(r.Updated),
	}
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, scheduled_at, last_error, created, updated`

// Enqueue inserts a queued job and returns the new ID. A zero MaxAttempts
// means a single attempt.
func (r *Repository) Enqueue(ctx context.Context, j *Job, now time.Time) (int64, error) {
	if j.MaxAttempts <= 0 {
		j.MaxAttempts = 1
	}
	if j.ScheduledAt.IsZero() {
		j.ScheduledAt = now
	}
	if len(j.Payload) == 0 {
		j.Payload = json.RawMessage("{}")
	}
	ts := now.UTC().UnixMilli()

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO jobs (type, payload, status, attempts, max_attempts, scheduled_at, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		j.Type, string(j.Payload), StatusQueued, j.Attempts, j.MaxAttempts, j.ScheduledAt.UTC().UnixMilli(), ts, ts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	j.ID = id
	j.Status = StatusQueued
	return id, nil
}

// FetchNext claims the oldest queued job that is due at now, marking it
// running. It returns (nil, nil) when nothing is due. The claim is a single
// conditional UPDATE so concurrent workers never receive the same job.
func (r *Repository) FetchNext(ctx context.Context, now time.Time) (*Job, error) {
	ts := now.UTC().UnixMilli()
	var row jobRow
	err := r.db.Get(ctx, &row,
		`UPDATE jobs SET status = ?, updated = ?
		 WHERE id = (SELECT id FROM jobs WHERE status = ? AND scheduled_at <= ? ORDER BY scheduled_at, id LIMIT 1)
		   AND status = ?
		 RETURNING `+jobColumns,
		StatusRunning, ts, StatusQueued, ts, StatusQueued,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next job: %w", err)
	}
	return row.job(), nil
}

// Get loads a job by id; (nil, nil) when it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Job, error) {
	var row jobRow
	if err := r.db.Get(ctx, &row, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.job(), nil
}

// UpdateJob persists status, attempts, schedule and last error.
func (r *Repository) UpdateJob(ctx context.Context, j *Job) error {
	var lastErr any
	if j.LastError != "" {
		lastErr = j.LastError
	}
	_, err := r.db.Exec(ctx,
		`UPDATE jobs SET status = ?, attempts = ?, scheduled_at = ?, last_error = ?, updated = ? WHERE id = ?`,
		j.Status, j.Attempts, j.ScheduledAt.UTC().UnixMilli(), lastErr, time.Now().UTC().UnixMilli(), j.ID)
	return err
}

// MoveToDeadLetter moves a job to dead_letter_jobs and deletes the original
func (r *Repository) MoveToDeadLetter(ctx context.Context, j *Job) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	insert := tx.Rebind(`INSERT INTO dead_letter_jobs (job_id, type, payload, attempts, last_error, created) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, j.ID, j.Type, string(j.Payload), j.Attempts, j.LastError, time.Now().UTC().UnixMilli()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM jobs WHERE id = ?`), j.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeadLetterRunning moves every running job to dead_letter_jobs with
// lastErr and reports how many were moved.
func (r *Repository) DeadLetterRunning(ctx context.Context, lastErr string, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	insert := tx.Rebind(`INSERT INTO dead_letter_jobs (job_id, type, payload, attempts, last_error, created)
		SELECT id, type, payload, attempts, CAST(? AS TEXT), CAST(? AS BIGINT) FROM jobs WHERE status = ?`)
	res, err := tx.ExecContext(ctx, insert, lastErr, now.UTC().UnixMilli(), StatusRunning)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM jobs WHERE status = ?`), StatusRunning); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountDeadLetters returns how many jobs of type typ were dead-lettered.
func (r *Repository) CountDeadLetters(ctx context.Context, typ string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM dead_letter_jobs WHERE type = ?`, typ).Scan(&n)
	return n, err
}
