package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsehr-backend/internal/models"
)

var ErrOpenSession = errors.New("an attendance session is already open")

type AttendanceRepo struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepo(pool *pgxpool.Pool) *AttendanceRepo {
	return &AttendanceRepo{pool: pool}
}

// ClockIn opens a new session. At most one open session per employee.
func (r *AttendanceRepo) ClockIn(ctx context.Context, employeeID uuid.UUID) (*models.AttendanceSession, error) {
	open, err := r.GetOpenSession(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrOpenSession
	}

	s := &models.AttendanceSession{ID: uuid.New(), EmployeeID: employeeID}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO attendance (id, employee_id)
		VALUES ($1, $2)
		RETURNING clock_in, created_at`,
		s.ID, employeeID,
	).Scan(&s.ClockIn, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AttendanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceSession, error) {
	s := &models.AttendanceSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_id, clock_in, clock_out, break_start, break_minutes, worked_minutes, created_at
		FROM attendance WHERE id = $1`, id,
	).Scan(&s.ID, &s.EmployeeID, &s.ClockIn, &s.ClockOut, &s.BreakStart, &s.BreakMinutes, &s.WorkedMinutes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetOpenSession returns the employee's open session, or nil when clocked out.
func (r *AttendanceRepo) GetOpenSession(ctx context.Context, employeeID uuid.UUID) (*models.AttendanceSession, error) {
	s := &models.AttendanceSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_id, clock_in, clock_out, break_start, break_minutes, worked_minutes, created_at
		FROM attendance
		WHERE employee_id = $1 AND clock_out IS NULL
		ORDER BY clock_in DESC LIMIT 1`, employeeID,
	).Scan(&s.ID, &s.EmployeeID, &s.ClockIn, &s.ClockOut, &s.BreakStart, &s.BreakMinutes, &s.WorkedMinutes, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AttendanceRepo) StartBreak(ctx context.Context, sessionID, employeeID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE attendance SET break_start = NOW()
		WHERE id = $1 AND employee_id = $2 AND clock_out IS NULL AND break_start IS NULL`,
		sessionID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// EndBreak folds the elapsed break into break_minutes and clears break_start.
func (r *AttendanceRepo) EndBreak(ctx context.Context, sessionID, employeeID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE attendance
		SET break_minutes = break_minutes + GREATEST(0, EXTRACT(EPOCH FROM (NOW() - break_start))::int / 60),
		    break_start = NULL
		WHERE id = $1 AND employee_id = $2 AND clock_out IS NULL AND break_start IS NOT NULL`,
		sessionID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ClockOut closes the session and computes worked_minutes net of breaks. An
// open break is ended implicitly.
func (r *AttendanceRepo) ClockOut(ctx context.Context, sessionID, employeeID uuid.UUID) (*models.AttendanceSession, error) {
	s := &models.AttendanceSession{}
	err := r.pool.QueryRow(ctx, `
		UPDATE attendance
		SET break_minutes = break_minutes + CASE
			WHEN break_start IS NOT NULL THEN GREATEST(0, EXTRACT(EPOCH FROM (NOW() - break_start))::int / 60)
			ELSE 0 END,
		    break_start = NULL,
		    clock_out = NOW(),
		    worked_minutes = GREATEST(0, EXTRACT(EPOCH FROM (NOW() - clock_in))::int / 60
			- break_minutes - CASE
			WHEN break_start IS NOT NULL THEN GREATEST(0, EXTRACT(EPOCH FROM (NOW() - break_start))::int / 60)
			ELSE 0 END)
		WHERE id = $1 AND employee_id = $2 AND clock_out IS NULL
		RETURNING id, employee_id, clock_in, clock_out, break_start, break_minutes, worked_minutes, created_at`,
		sessionID, employeeID,
	).Scan(&s.ID, &s.EmployeeID, &s.ClockIn, &s.ClockOut, &s.BreakStart, &s.BreakMinutes, &s.WorkedMinutes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// WorkedMinutesByEmployee sums worked_minutes of closed sessions whose
// clock_in falls in [start, end). Open sessions do not count.
func (r *AttendanceRepo) WorkedMinutesByEmployee(ctx context.Context, start, end time.Time) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id, COALESCE(SUM(worked_minutes), 0)
		FROM attendance
		WHERE clock_out IS NOT NULL AND clock_in >= $1 AND clock_in < $2
		GROUP BY employee_id`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	minutes := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return nil, err
		}
		minutes[id] = total
	}
	return minutes, rows.Err()
}

func (r *AttendanceRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]*models.AttendanceSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, clock_in, clock_out, break_start, break_minutes, worked_minutes, created_at
		FROM attendance
		WHERE employee_id = $1 AND clock_in >= $2 AND clock_in < $3
		ORDER BY clock_in DESC`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.AttendanceSession, 0)
	for rows.Next() {
		s := &models.AttendanceSession{}
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.ClockIn, &s.ClockOut, &s.BreakStart, &s.BreakMinutes, &s.WorkedMinutes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
