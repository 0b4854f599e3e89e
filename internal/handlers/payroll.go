package handlers

import (
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
	"pulsehr-backend/internal/services"
	"pulsehr-backend/internal/websocket"
	"pulsehr-backend/internal/worker"
)

type PayrollHandler struct {
	payrollRepo  *repository.PayrollRepo
	employeeRepo *repository.EmployeeRepo
	email        *services.EmailService
	pool         *worker.Pool
	hub          *websocket.Hub
}

func NewPayrollHandler(payrollRepo *repository.PayrollRepo, employeeRepo *repository.EmployeeRepo, email *services.EmailService, pool *worker.Pool, hub *websocket.Hub) *PayrollHandler {
	return &PayrollHandler{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		email:        email,
		pool:         pool,
		hub:          hub,
	}
}

// Run enqueues an async payroll generation job for the period (admin only).
func (h *PayrollHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.PayrollRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Period end must be after period start", r))
		return
	}

	configJSON, _ := json.Marshal(req)
	job := &models.Job{
		RequestedBy: middleware.GetUserID(r.Context()),
		Type:        "payroll-run",
		ReferenceID: uuid.New(),
		ConfigJSON:  configJSON,
	}

	if err := h.pool.Enqueue(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue payroll run", r))
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// ListMine returns the caller's own payroll records.
func (h *PayrollHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	records, err := h.payrollRepo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list payroll records", r))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// ListByEmployee is the admin view of any employee's records.
func (h *PayrollHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
		return
	}

	records, err := h.payrollRepo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list payroll records", r))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Finalize locks a draft record and notifies the employee (admin only).
func (h *PayrollHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid payroll record ID", r))
		return
	}

	if err := h.payrollRepo.Finalize(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Record is already finalized or does not exist", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to finalize record", r))
		return
	}

	record, err := h.payrollRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load record", r))
		return
	}

	if employee, err := h.employeeRepo.GetByID(r.Context(), record.EmployeeID); err == nil {
		period := record.PeriodStart.Format("2006-01-02") + " to " + record.PeriodEnd.Format("2006-01-02")
		go h.email.SendPayslipReady(employee.Email, employee.FullName, period)
	}

	// Nudge the employee's open portal tabs without waiting on pub/sub.
	h.hub.SendToEmployee(record.EmployeeID, models.WSMessage{
		Type:    "payroll_update",
		Payload: record,
	})

	writeJSON(w, http.StatusOK, record)
}

// ListByPeriod is the admin roll-up of every record generated for one period.
// The period must match a run exactly, so both bounds are required.
func (h *PayrollHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("period_start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "period_start must be an RFC 3339 timestamp", r))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("period_end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "period_end must be an RFC 3339 timestamp", r))
		return
	}

	records, err := h.payrollRepo.ListByPeriod(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list payroll records", r))
		return
	}

	writeJSON(w, http.StatusOK, records)
}
