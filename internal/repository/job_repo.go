package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, job *models.Job) error {
	job.ID = uuid.New()
	if len(job.ConfigJSON) == 0 {
		job.ConfigJSON = json.RawMessage("{}")
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO jobs (id, requested_by, type, reference_id, config_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING status, created_at`,
		job.ID, job.RequestedBy, job.Type, job.ReferenceID, job.ConfigJSON,
	).Scan(&job.Status, &job.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job := &models.Job{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, requested_by, type, reference_id, config_json, status, retry_count, max_retries, error_message, created_at, completed_at
		FROM jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.RequestedBy, &job.Type, &job.ReferenceID, &job.ConfigJSON,
		&job.Status, &job.RetryCount, &job.MaxRetries, &job.ErrorMessage, &job.CreatedAt, &job.CompletedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE jobs SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE jobs SET status = 'completed', completed_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *JobRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = 'failed', error_message = $1, completed_at = NOW() WHERE id = $2`,
		message, id)
	return err
}

func (r *JobRepo) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE jobs SET retry_count = retry_count + 1, status = 'pending' WHERE id = $1`, id)
	return err
}
