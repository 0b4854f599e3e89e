package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

type stubLedger struct {
	minutes map[uuid.UUID]int
}

func (s *stubLedger) WorkedMinutesByEmployee(ctx context.Context, start, end time.Time) (map[uuid.UUID]int, error) {
	return s.minutes, nil
}

type stubPayrollStore struct {
	upserts   []*models.PayrollRecord
	finalized map[uuid.UUID]bool
}

func (s *stubPayrollStore) Upsert(ctx context.Context, rec *models.PayrollRecord) error {
	if s.finalized[rec.EmployeeID] {
		return repository.ErrPayrollFinalized
	}
	rec.ID = uuid.New()
	s.upserts = append(s.upserts, rec)
	return nil
}

type stubPayrollDirectory struct {
	employees []*models.Employee
}

func (s *stubPayrollDirectory) List(ctx context.Context) ([]*models.Employee, error) {
	return s.employees, nil
}

func TestGrossPay(t *testing.T) {
	cases := []struct {
		minutes int
		rate    float64
		want    float64
	}{
		{480, 25.0, 200.0},     // full 8h day
		{90, 20.0, 30.0},       // partial hour
		{0, 50.0, 0.0},         // no work
		{473, 21.37, 168.47},   // rounds to cents (168.4668...)
		{1, 19.99, 0.33},       // single minute
	}

	for _, tc := range cases {
		if got := GrossPay(tc.minutes, tc.rate); got != tc.want {
			t.Fatalf("GrossPay(%d, %.2f) = %.4f, want %.2f", tc.minutes, tc.rate, got, tc.want)
		}
	}
}

func TestPayrollRunGeneratesDrafts(t *testing.T) {
	alice := &models.Employee{ID: uuid.New(), FullName: "Alice", HourlyRate: 30.0, IsActive: true}
	bob := &models.Employee{ID: uuid.New(), FullName: "Bob", HourlyRate: 22.5, IsActive: true}
	former := &models.Employee{ID: uuid.New(), FullName: "Former", HourlyRate: 40.0, IsActive: false}

	ledger := &stubLedger{minutes: map[uuid.UUID]int{
		alice.ID:  600, // 10h
		former.ID: 120, // stale sessions from a deactivated account
	}}
	directory := &stubPayrollDirectory{employees: []*models.Employee{alice, bob, former}}

	svc := NewPayrollService(ledger, &stubPayrollStore{}, directory)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)

	records, skipped, err := svc.Run(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped employees, got %v", skipped)
	}

	if len(records) != 2 {
		t.Fatalf("expected drafts for 2 active employees, got %d", len(records))
	}

	byEmployee := make(map[uuid.UUID]*models.PayrollRecord)
	for _, rec := range records {
		byEmployee[rec.EmployeeID] = rec
	}

	if rec := byEmployee[alice.ID]; rec == nil || rec.GrossPay != 300.0 || rec.WorkedMinutes != 600 {
		t.Fatalf("unexpected record for alice: %+v", rec)
	}
	// No sessions still produces a zero draft so the period is complete.
	if rec := byEmployee[bob.ID]; rec == nil || rec.GrossPay != 0 || rec.WorkedMinutes != 0 {
		t.Fatalf("unexpected record for bob: %+v", rec)
	}
	if _, ok := byEmployee[former.ID]; ok {
		t.Fatalf("deactivated employee must be skipped")
	}

	for _, rec := range records {
		if rec.Status != "draft" {
			t.Fatalf("records must start as drafts, got %q", rec.Status)
		}
	}
}

func TestPayrollRunRejectsInvertedPeriod(t *testing.T) {
	svc := NewPayrollService(&stubLedger{}, &stubPayrollStore{}, &stubPayrollDirectory{})

	start := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, _, err := svc.Run(context.Background(), start, end); err == nil {
		t.Fatalf("expected validation error for inverted period")
	}
}

func TestPayrollRunSkipsFinalizedRecords(t *testing.T) {
	alice := &models.Employee{ID: uuid.New(), FullName: "Alice", HourlyRate: 30.0, IsActive: true}
	bob := &models.Employee{ID: uuid.New(), FullName: "Bob", HourlyRate: 22.5, IsActive: true}

	store := &stubPayrollStore{finalized: map[uuid.UUID]bool{bob.ID: true}}
	directory := &stubPayrollDirectory{employees: []*models.Employee{alice, bob}}

	svc := NewPayrollService(&stubLedger{minutes: map[uuid.UUID]int{alice.ID: 480}}, store, directory)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)

	records, skipped, err := svc.Run(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 || records[0].EmployeeID != alice.ID {
		t.Fatalf("expected only alice's draft to be written, got %+v", records)
	}
	if len(skipped) != 1 || skipped[0] != bob.ID {
		t.Fatalf("expected bob to be reported as skipped, got %v", skipped)
	}
	for _, rec := range store.upserts {
		if rec.EmployeeID == bob.ID {
			t.Fatalf("finalized record must not be overwritten")
		}
	}
}
