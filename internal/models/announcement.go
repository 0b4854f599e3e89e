package models

import (
	"time"

	"github.com/google/uuid"
)

type Announcement struct {
	ID             uuid.UUID `json:"id"`
	AuthorID       uuid.UUID `json:"author_id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	AttachmentURL  *string   `json:"attachment_url"`
	AttachmentText *string   `json:"attachment_text,omitempty"`
	Pinned         bool      `json:"pinned"`
	CreatedAt      time.Time `json:"created_at"`
}

type Reaction struct {
	AnnouncementID uuid.UUID `json:"announcement_id"`
	EmployeeID     uuid.UUID `json:"employee_id"`
	Emoji          string    `json:"emoji"`
	CreatedAt      time.Time `json:"created_at"`
}

type Comment struct {
	ID             uuid.UUID `json:"id"`
	AnnouncementID uuid.UUID `json:"announcement_id"`
	EmployeeID     uuid.UUID `json:"employee_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
