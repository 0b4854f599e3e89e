package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

type AttendanceHandler struct {
	attendanceRepo *repository.AttendanceRepo
	captureRepo    *repository.CaptureRepo
	agentToken     string
}

func NewAttendanceHandler(attendanceRepo *repository.AttendanceRepo, captureRepo *repository.CaptureRepo, agentToken string) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceRepo: attendanceRepo,
		captureRepo:    captureRepo,
		agentToken:     agentToken,
	}
}

func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	session, err := h.attendanceRepo.ClockIn(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrOpenSession) {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Already clocked in", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clock in", r))
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.attendanceRepo.ClockOut(r.Context(), sessionID, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No open session to clock out", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to clock out", r))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *AttendanceHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.attendanceRepo.StartBreak(r.Context(), sessionID, employeeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Session is closed or already on break", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start break", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Break started"})
}

func (h *AttendanceHandler) EndBreak(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.attendanceRepo.EndBreak(r.Context(), sessionID, employeeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "No open break on this session", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to end break", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Break ended"})
}

// Current returns the caller's open session, or null when clocked out.
func (h *AttendanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	session, err := h.attendanceRepo.GetOpenSession(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	// Admins may inspect any employee's sessions.
	if paramID := r.URL.Query().Get("employee_id"); paramID != "" {
		if middleware.GetRole(r.Context()) != "admin" {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Admin role required to view other employees", r))
			return
		}
		parsed, err := uuid.Parse(paramID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
			return
		}
		employeeID = parsed
	}

	from, to := parsePeriod(r)
	sessions, err := h.attendanceRepo.ListByEmployee(r.Context(), employeeID, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// RecordCapture ingests one screenshot row from the desktop agent. The agent
// authenticates with a shared token, not a JWT.
func (h *AttendanceHandler) RecordCapture(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Agent-Token")
	if h.agentToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.agentToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid agent token", r))
		return
	}

	var req models.RecordCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.AttendanceID == uuid.Nil || req.ImageURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "attendance_id and image_url are required", r))
		return
	}

	session, err := h.attendanceRepo.GetByID(r.Context(), req.AttendanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attendance session not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}

	capturedAt := req.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	capture := models.Capture{
		AttendanceID: session.ID,
		EmployeeID:   session.EmployeeID,
		ImageURL:     req.ImageURL,
		CapturedAt:   capturedAt,
	}
	if err := h.captureRepo.Record(r.Context(), capture); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record capture", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Capture recorded"})
}

// ListCaptures is admin-only review of a session's screenshots.
func (h *AttendanceHandler) ListCaptures(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	captures, err := h.captureRepo.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list captures", r))
		return
	}

	writeJSON(w, http.StatusOK, captures)
}

// parsePeriod reads from/to query params, defaulting to the last 30 days.
func parsePeriod(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			from = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			// Inclusive end of day
			to = parsed.AddDate(0, 0, 1)
		}
	}

	return from, to
}
