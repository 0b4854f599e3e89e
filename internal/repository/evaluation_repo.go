package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type EvaluationRepo struct {
	pool *pgxpool.Pool
}

func NewEvaluationRepo(pool *pgxpool.Pool) *EvaluationRepo {
	return &EvaluationRepo{pool: pool}
}

func (r *EvaluationRepo) Create(ctx context.Context, ev *models.Evaluation) error {
	ev.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO evaluations (id, employee_id, reviewer_id, period, productivity, communication, teamwork, initiative, reliability, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		ev.ID, ev.EmployeeID, ev.ReviewerID, ev.Period,
		ev.Scores.Productivity, ev.Scores.Communication, ev.Scores.Teamwork, ev.Scores.Initiative, ev.Scores.Reliability,
		ev.Comments,
	).Scan(&ev.CreatedAt, &ev.UpdatedAt)
}

func (r *EvaluationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	ev := &models.Evaluation{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_id, reviewer_id, period, productivity, communication, teamwork, initiative, reliability, comments, summary_json, created_at, updated_at
		FROM evaluations WHERE id = $1`, id,
	).Scan(&ev.ID, &ev.EmployeeID, &ev.ReviewerID, &ev.Period,
		&ev.Scores.Productivity, &ev.Scores.Communication, &ev.Scores.Teamwork, &ev.Scores.Initiative, &ev.Scores.Reliability,
		&ev.Comments, &ev.SummaryJSON, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *EvaluationRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.Evaluation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, reviewer_id, period, productivity, communication, teamwork, initiative, reliability, comments, summary_json, created_at, updated_at
		FROM evaluations
		WHERE employee_id = $1
		ORDER BY created_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evals := make([]*models.Evaluation, 0)
	for rows.Next() {
		ev := &models.Evaluation{}
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.ReviewerID, &ev.Period,
			&ev.Scores.Productivity, &ev.Scores.Communication, &ev.Scores.Teamwork, &ev.Scores.Initiative, &ev.Scores.Reliability,
			&ev.Comments, &ev.SummaryJSON, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

// ListMissingSummaries returns evaluation ids with no stored summary, for the
// bulk regeneration job.
func (r *EvaluationRepo) ListMissingSummaries(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM evaluations WHERE summary_json IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *EvaluationRepo) Update(ctx context.Context, ev *models.Evaluation) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE evaluations
		SET productivity = $1, communication = $2, teamwork = $3, initiative = $4, reliability = $5,
		    comments = $6, summary_json = NULL, updated_at = NOW()
		WHERE id = $7`,
		ev.Scores.Productivity, ev.Scores.Communication, ev.Scores.Teamwork, ev.Scores.Initiative, ev.Scores.Reliability,
		ev.Comments, ev.ID)
	return err
}

func (r *EvaluationRepo) SaveSummary(ctx context.Context, id uuid.UUID, summary json.RawMessage) error {
	_, err := r.pool.Exec(ctx, `UPDATE evaluations SET summary_json = $1, updated_at = NOW() WHERE id = $2`, summary, id)
	return err
}

func (r *EvaluationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	return err
}
