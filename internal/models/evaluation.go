package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Evaluation criteria are scored 1-5.
type EvaluationScores struct {
	Productivity  int `json:"productivity"`
	Communication int `json:"communication"`
	Teamwork      int `json:"teamwork"`
	Initiative    int `json:"initiative"`
	Reliability   int `json:"reliability"`
}

type Evaluation struct {
	ID          uuid.UUID        `json:"id"`
	EmployeeID  uuid.UUID        `json:"employee_id"`
	ReviewerID  uuid.UUID        `json:"reviewer_id"`
	Period      string           `json:"period"` // e.g. "2026-Q1"
	Scores      EvaluationScores `json:"scores"`
	Comments    string           `json:"comments"`
	SummaryJSON json.RawMessage  `json:"summary,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EvaluationSummary is the JSON schema the language model is instructed to
// return for an evaluation summary.
type EvaluationSummary struct {
	Overall      string   `json:"overall"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Rating       string   `json:"rating"` // "exceeds" | "meets" | "below"
}
