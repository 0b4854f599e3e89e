package models

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	AvatarURL    *string    `json:"avatar_url"`
	Department   string     `json:"department"`
	Position     string     `json:"position"`
	HourlyRate   float64    `json:"hourly_rate"`
	ManagerID    *uuid.UUID `json:"manager_id"`
	Role         string     `json:"role"` // "admin" | "employee"
	IsActive     bool       `json:"is_active"`
	HiredAt      time.Time  `json:"hired_at"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type CreateEmployeeRequest struct {
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Department string     `json:"department"`
	Position   string     `json:"position"`
	HourlyRate float64    `json:"hourly_rate"`
	ManagerID  *uuid.UUID `json:"manager_id"`
	Role       string     `json:"role"`
}

type UpdateEmployeeRequest struct {
	FullName   *string    `json:"full_name"`
	Department *string    `json:"department"`
	Position   *string    `json:"position"`
	HourlyRate *float64   `json:"hourly_rate"`
	ManagerID  *uuid.UUID `json:"manager_id"`
	Role       *string    `json:"role"`
	IsActive   *bool      `json:"is_active"`
}

// OrgChartNode is one employee plus everyone reporting to them.
type OrgChartNode struct {
	Employee Employee        `json:"employee"`
	Reports  []*OrgChartNode `json:"reports"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
