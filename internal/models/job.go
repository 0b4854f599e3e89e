package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	RequestedBy  uuid.UUID       `json:"requested_by"`
	Type         string          `json:"type"` // "payroll-run" | "evaluation-summary"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message envelope
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JobUpdate struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

type FeedEvent struct {
	Kind       string    `json:"kind"` // "announcement" | "reaction" | "comment" | "shoutout"
	ResourceID uuid.UUID `json:"resource_id"`
	ActorID    uuid.UUID `json:"actor_id"`
}

// API error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
