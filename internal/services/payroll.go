package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/metrics"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

type workLedger interface {
	WorkedMinutesByEmployee(ctx context.Context, start, end time.Time) (map[uuid.UUID]int, error)
}

type payrollStore interface {
	Upsert(ctx context.Context, rec *models.PayrollRecord) error
}

type payrollDirectory interface {
	List(ctx context.Context) ([]*models.Employee, error)
}

// PayrollService turns closed attendance sessions into draft payroll records.
type PayrollService struct {
	ledger    workLedger
	store     payrollStore
	employees payrollDirectory
}

func NewPayrollService(ledger workLedger, store payrollStore, employees payrollDirectory) *PayrollService {
	return &PayrollService{ledger: ledger, store: store, employees: employees}
}

// Run generates one draft record per active employee for the period. Running
// the same period twice overwrites the drafts rather than duplicating them.
// Employees whose record for the period is already finalized are skipped and
// reported in the second return value.
func (s *PayrollService) Run(ctx context.Context, periodStart, periodEnd time.Time) ([]*models.PayrollRecord, []uuid.UUID, error) {
	if !periodEnd.After(periodStart) {
		return nil, nil, &ValidationError{Fields: map[string]string{
			"period_end": "Period end must be after period start",
		}}
	}

	minutes, err := s.ledger.WorkedMinutesByEmployee(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate worked minutes: %w", err)
	}

	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list employees: %w", err)
	}

	records := make([]*models.PayrollRecord, 0, len(employees))
	var skipped []uuid.UUID
	for _, emp := range employees {
		if !emp.IsActive {
			continue
		}

		worked := minutes[emp.ID]
		rec := &models.PayrollRecord{
			EmployeeID:    emp.ID,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
			WorkedMinutes: worked,
			HourlyRate:    emp.HourlyRate,
			GrossPay:      GrossPay(worked, emp.HourlyRate),
			Status:        "draft",
		}

		if err := s.store.Upsert(ctx, rec); err != nil {
			// Finalized records are immutable; skip them and keep going.
			if errors.Is(err, repository.ErrPayrollFinalized) {
				skipped = append(skipped, emp.ID)
				continue
			}
			return nil, nil, fmt.Errorf("upsert payroll for %s: %w", emp.ID, err)
		}
		records = append(records, rec)
	}

	metrics.PayrollRunsTotal.Inc()
	return records, skipped, nil
}

// GrossPay converts worked minutes at an hourly rate into pay, rounded to
// cents.
func GrossPay(workedMinutes int, hourlyRate float64) float64 {
	gross := float64(workedMinutes) / 60.0 * hourlyRate
	return math.Round(gross*100) / 100
}
