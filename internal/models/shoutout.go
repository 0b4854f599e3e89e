package models

import (
	"time"

	"github.com/google/uuid"
)

type ShoutOut struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Message   string    `json:"message"`
	Badge     string    `json:"badge"` // "team_player" | "above_and_beyond" | "innovator" | "helping_hand"
	CreatedAt time.Time `json:"created_at"`
}
