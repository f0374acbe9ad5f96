package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

var _ ports.JobRepository = (*DB)(nil)

const jobColumns = `id, scan_type, input, status, scan_id, error, queued_at, started_at, finished_at`

func (db *DB) Enqueue(ctx context.Context, t domain.ScanType, in ports.JobInput) (string, error) {
	input, err := json.Marshal(in)
	if err != nil {
		return "", errs.E(errs.KindInvalidInput, "postgres.Enqueue", err)
	}
	id := uuid.NewString()
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO analysis_jobs (id, scan_type, input, status, queued_at) VALUES ($1, $2, $3, 'queued', now())
	`, id, string(t), string(input)); err != nil {
		return "", errs.E(errs.KindStorage, "postgres.Enqueue", err)
	}
	return id, nil
}

// ClaimNext selects the oldest queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AnalysisJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, errs.E(errs.KindStorage, "postgres.ClaimNext", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id FROM analysis_jobs
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, errs.E(errs.KindStorage, "postgres.ClaimNext", err)
	}
	job, err = markRunning(ctx, tx, id)
	if err != nil {
		return job, false, err
	}
	return job, true, nil
}

// EnqueueRunning inserts a job directly in the running state so no worker
// can claim it.
func (db *DB) EnqueueRunning(ctx context.Context, t domain.ScanType, in ports.JobInput) (ports.AnalysisJob, error) {
	const op = "postgres.EnqueueRunning"
	input, err := json.Marshal(in)
	if err != nil {
		return ports.AnalysisJob{}, errs.E(errs.KindInvalidInput, op, err)
	}
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO analysis_jobs (id, scan_type, input, status, attempts, queued_at, started_at)
		VALUES ($1, $2, $3, 'running', 1, now(), now())
		RETURNING `+jobColumns, uuid.NewString(), string(t), string(input))
	return scanJob(row, op)
}

func markRunning(ctx context.Context, tx pgx.Tx, id string) (ports.AnalysisJob, error) {
	row := tx.QueryRow(ctx, `
		UPDATE analysis_jobs SET status = 'running', started_at = now(), attempts = attempts + 1
		WHERE id = $1
		RETURNING `+jobColumns, id)
	return scanJob(row, "postgres.markRunning")
}

func (db *DB) MarkCompleted(ctx context.Context, jobID, scanID string) error {
	return db.finish(ctx, "postgres.MarkCompleted",
		`UPDATE analysis_jobs SET status = 'completed', scan_id = $2, finished_at = now() WHERE id = $1`, jobID, scanID)
}

func (db *DB) MarkFailed(ctx context.Context, jobID, reason string) error {
	return db.finish(ctx, "postgres.MarkFailed",
		`UPDATE analysis_jobs SET status = 'failed', error = $2, finished_at = now() WHERE id = $1`, jobID, reason)
}

func (db *DB) finish(ctx context.Context, op, query, jobID, value string) error {
	// Finishing must survive the cancellation of the request that ran the job.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, query, jobID, value)
	if err != nil {
		return errs.E(errs.KindStorage, op, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.E(errs.KindNotFound, op, "job "+jobID)
	}
	return nil
}

func (db *DB) Get(ctx context.Context, jobID string) (ports.AnalysisJob, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM analysis_jobs WHERE id = $1`, jobID)
	return scanJob(row, "postgres.Get")
}

func scanJob(row pgx.Row, op string) (ports.AnalysisJob, error) {
	var (
		job   ports.AnalysisJob
		t     string
		input string
		st    string
	)
	err := row.Scan(&job.ID, &t, &input, &st, &job.ScanID, &job.Error, &job.QueuedAt, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, errs.E(errs.KindNotFound, op, "job not found")
	}
	if err != nil {
		return job, errs.E(errs.KindStorage, op, err)
	}
	job.Type = domain.ScanType(t)
	job.Status = ports.JobStatus(st)
	if err := json.Unmarshal([]byte(input), &job.Input); err != nil {
		return job, errs.E(errs.KindStorage, op, "decode job input", err)
	}
	return job, nil
}
