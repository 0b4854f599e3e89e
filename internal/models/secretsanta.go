package models

import (
	"time"

	"github.com/google/uuid"
)

type SecretSantaEvent struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Budget     float64    `json:"budget"`
	ExchangeOn time.Time  `json:"exchange_on"`
	DrawnAt    *time.Time `json:"drawn_at"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SecretSantaParticipant struct {
	EventID    uuid.UUID `json:"event_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	WishList   string    `json:"wish_list"`
	JoinedAt   time.Time `json:"joined_at"`
}

type SecretSantaAssignment struct {
	EventID    uuid.UUID `json:"event_id"`
	GiverID    uuid.UUID `json:"giver_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}
