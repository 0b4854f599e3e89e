package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type CaptureRepo struct {
	pool *pgxpool.Pool
}

func NewCaptureRepo(pool *pgxpool.Pool) *CaptureRepo {
	return &CaptureRepo{pool: pool}
}

// Record appends one capture row. Captures are never updated or re-sent.
func (r *CaptureRepo) Record(ctx context.Context, c models.Capture) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO captures (id, attendance_id, employee_id, image_url, captured_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.AttendanceID, c.EmployeeID, c.ImageURL, c.CapturedAt)
	return err
}

// ListBySession returns captures ordered by captured_at, which is
// authoritative over insertion order.
func (r *CaptureRepo) ListBySession(ctx context.Context, attendanceID uuid.UUID) ([]*models.Capture, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, attendance_id, employee_id, image_url, captured_at
		FROM captures
		WHERE attendance_id = $1
		ORDER BY captured_at`, attendanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	captures := make([]*models.Capture, 0)
	for rows.Next() {
		c := &models.Capture{}
		if err := rows.Scan(&c.ID, &c.AttendanceID, &c.EmployeeID, &c.ImageURL, &c.CapturedAt); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}
