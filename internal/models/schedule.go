package models

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	ID         uuid.UUID `json:"id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Weekday    int       `json:"weekday"` // 0 = Sunday
	StartTime  string    `json:"start_time"` // "09:00"
	EndTime    string    `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}
