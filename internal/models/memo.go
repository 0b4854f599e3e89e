package models

import (
	"time"

	"github.com/google/uuid"
)

type Memo struct {
	ID                 uuid.UUID  `json:"id"`
	SenderID           uuid.UUID  `json:"sender_id"`
	RecipientID        uuid.UUID  `json:"recipient_id"`
	Subject            string     `json:"subject"`
	Body               string     `json:"body"`
	EscalateAfterHours int        `json:"escalate_after_hours"`
	Escalated          bool       `json:"escalated"`
	OriginalMemoID     *uuid.UUID `json:"original_memo_id"`
	ReadAt             *time.Time `json:"read_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

type EscalationResult struct {
	Success      bool     `json:"success"`
	Escalated    int      `json:"escalated"`
	TotalChecked int      `json:"total_checked"`
	Errors       []string `json:"errors,omitempty"`
}
