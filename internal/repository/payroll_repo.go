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

// ErrPayrollFinalized is returned when an upsert hits a record that has
// already been finalized. Finalized pay is immutable.
var ErrPayrollFinalized = errors.New("payroll record is finalized")

type PayrollRepo struct {
	pool *pgxpool.Pool
}

func NewPayrollRepo(pool *pgxpool.Pool) *PayrollRepo {
	return &PayrollRepo{pool: pool}
}

// Upsert writes one payroll record; re-running a period overwrites the draft
// rather than duplicating it. Finalized records are never touched: the
// conflict update is guarded on status, so a finalized row yields no RETURNING
// row and the caller gets ErrPayrollFinalized.
func (r *PayrollRepo) Upsert(ctx context.Context, rec *models.PayrollRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payroll_records (id, employee_id, period_start, period_end, worked_minutes, hourly_rate, gross_pay)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, period_start, period_end) DO UPDATE
		SET worked_minutes = EXCLUDED.worked_minutes,
		    hourly_rate = EXCLUDED.hourly_rate,
		    gross_pay = EXCLUDED.gross_pay,
		    generated_at = NOW()
		WHERE payroll_records.status = 'draft'
		RETURNING generated_at`,
		rec.ID, rec.EmployeeID, rec.PeriodStart, rec.PeriodEnd, rec.WorkedMinutes, rec.HourlyRate, rec.GrossPay,
	).Scan(&rec.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPayrollFinalized
	}
	return err
}

func (r *PayrollRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PayrollRecord, error) {
	rec := &models.PayrollRecord{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, employee_id, period_start, period_end, worked_minutes, hourly_rate, gross_pay, status, generated_at, finalized_at
		FROM payroll_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.EmployeeID, &rec.PeriodStart, &rec.PeriodEnd, &rec.WorkedMinutes,
		&rec.HourlyRate, &rec.GrossPay, &rec.Status, &rec.GeneratedAt, &rec.FinalizedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Finalize locks a draft record. Finalizing twice returns pgx.ErrNoRows.
func (r *PayrollRepo) Finalize(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payroll_records SET status = 'finalized', finalized_at = NOW()
		WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PayrollRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.PayrollRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, period_start, period_end, worked_minutes, hourly_rate, gross_pay, status, generated_at, finalized_at
		FROM payroll_records
		WHERE employee_id = $1
		ORDER BY period_start DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayrollRows(rows)
}

func (r *PayrollRepo) ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.PayrollRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, employee_id, period_start, period_end, worked_minutes, hourly_rate, gross_pay, status, generated_at, finalized_at
		FROM payroll_records
		WHERE period_start = $1 AND period_end = $2
		ORDER BY employee_id`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayrollRows(rows)
}

func scanPayrollRows(rows pgx.Rows) ([]*models.PayrollRecord, error) {
	records := make([]*models.PayrollRecord, 0)
	for rows.Next() {
		rec := &models.PayrollRecord{}
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.PeriodStart, &rec.PeriodEnd, &rec.WorkedMinutes,
			&rec.HourlyRate, &rec.GrossPay, &rec.Status, &rec.GeneratedAt, &rec.FinalizedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
