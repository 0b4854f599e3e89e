package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

type ScheduleHandler struct {
	scheduleRepo *repository.ScheduleRepo
}

func NewScheduleHandler(scheduleRepo *repository.ScheduleRepo) *ScheduleHandler {
	return &ScheduleHandler{scheduleRepo: scheduleRepo}
}

// Upsert writes one weekly shift for an employee (admin only).
func (h *ScheduleHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID uuid.UUID `json:"employee_id"`
		Weekday    int       `json:"weekday"`
		StartTime  string    `json:"start_time"`
		EndTime    string    `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.EmployeeID == uuid.Nil || req.Weekday < 0 || req.Weekday > 6 || req.StartTime == "" || req.EndTime == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "employee_id, weekday (0-6), start_time, and end_time are required", r))
		return
	}

	schedule := &models.Schedule{
		EmployeeID: req.EmployeeID,
		Weekday:    req.Weekday,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}

	if err := h.scheduleRepo.Upsert(r.Context(), schedule); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save schedule", r))
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// ListMine returns the caller's weekly shifts.
func (h *ScheduleHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	schedules, err := h.scheduleRepo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list schedules", r))
		return
	}

	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
		return
	}

	schedules, err := h.scheduleRepo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list schedules", r))
		return
	}

	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid schedule ID", r))
		return
	}

	if err := h.scheduleRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete schedule", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Schedule deleted"})
}
