package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

type ScheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Upsert writes one weekly shift row; an employee has at most one shift per
// weekday.
func (r *ScheduleRepo) Upsert(ctx context.Context, s *models.Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO schedules (id, employee_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, weekday) DO UPDATE
		SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
		RETURNING created_at`,
		s.ID, s.EmployeeID, s.Weekday, s.StartTime, s.EndTime,
	).Scan(&s.CreatedAt)
}

func (r *ScheduleRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, weekday, start_time, end_time, created_at
		FROM schedules
		WHERE employee_id = $1
		ORDER BY weekday`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]*models.Schedule, 0)
	for rows.Next() {
		s := &models.Schedule{}
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.Weekday, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	return err
}
