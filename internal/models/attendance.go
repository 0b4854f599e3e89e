package models

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceSession struct {
	ID            uuid.UUID  `json:"id"`
	EmployeeID    uuid.UUID  `json:"employee_id"`
	ClockIn       time.Time  `json:"clock_in"`
	ClockOut      *time.Time `json:"clock_out"`
	BreakStart    *time.Time `json:"break_start"`
	BreakMinutes  int        `json:"break_minutes"`
	WorkedMinutes *int       `json:"worked_minutes"`
	CreatedAt     time.Time  `json:"created_at"`
}

// OnBreak reports whether the session has an open break.
func (s *AttendanceSession) OnBreak() bool {
	return s.BreakStart != nil
}

// Capture is one stored screenshot row. Rows are append-only and never
// updated; captured_at is authoritative for ordering.
type Capture struct {
	ID           uuid.UUID `json:"id"`
	AttendanceID uuid.UUID `json:"attendance_id"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	ImageURL     string    `json:"image_url"`
	CapturedAt   time.Time `json:"captured_at"`
}

type RecordCaptureRequest struct {
	AttendanceID uuid.UUID `json:"attendance_id"`
	ImageURL     string    `json:"image_url"`
	CapturedAt   time.Time `json:"captured_at"`
}
