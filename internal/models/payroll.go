package models

import (
	"time"

	"github.com/google/uuid"
)

type PayrollRecord struct {
	ID            uuid.UUID  `json:"id"`
	EmployeeID    uuid.UUID  `json:"employee_id"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	WorkedMinutes int        `json:"worked_minutes"`
	HourlyRate    float64    `json:"hourly_rate"`
	GrossPay      float64    `json:"gross_pay"`
	Status        string     `json:"status"` // "draft" | "finalized"
	GeneratedAt   time.Time  `json:"generated_at"`
	FinalizedAt   *time.Time `json:"finalized_at"`
}

type PayrollRunRequest struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}
