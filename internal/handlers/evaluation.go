package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/services"
	"pulsehr-backend/internal/worker"
)

type EvaluationHandler struct {
	evalRepo   *repository.EvaluationRepo
	summarizer *services.SummarizerService
	pool       *worker.Pool
}

func NewEvaluationHandler(evalRepo *repository.EvaluationRepo, summarizer *services.SummarizerService, pool *worker.Pool) *EvaluationHandler {
	return &EvaluationHandler{
		evalRepo:   evalRepo,
		summarizer: summarizer,
		pool:       pool,
	}
}

type evaluationRequest struct {
	EmployeeID uuid.UUID               `json:"employee_id"`
	Period     string                  `json:"period"`
	Scores     models.EvaluationScores `json:"scores"`
	Comments   string                  `json:"comments"`
}

func validateScores(scores models.EvaluationScores) map[string]string {
	fields := make(map[string]string)
	check := func(name string, v int) {
		if v < 1 || v > 5 {
			fields[name] = "Score must be between 1 and 5"
		}
	}
	check("productivity", scores.Productivity)
	check("communication", scores.Communication)
	check("teamwork", scores.Teamwork)
	check("initiative", scores.Initiative)
	check("reliability", scores.Reliability)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.EmployeeID == uuid.Nil || req.Period == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "employee_id and period are required", r))
		return
	}
	if fields := validateScores(req.Scores); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	eval := &models.Evaluation{
		EmployeeID: req.EmployeeID,
		ReviewerID: middleware.GetUserID(r.Context()),
		Period:     req.Period,
		Scores:     req.Scores,
		Comments:   req.Comments,
	}

	if err := h.evalRepo.Create(r.Context(), eval); err != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "An evaluation already exists for this employee and period", r))
		return
	}

	writeJSON(w, http.StatusCreated, eval)
}

func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid evaluation ID", r))
		return
	}

	eval, err := h.evalRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Evaluation not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get evaluation", r))
		return
	}

	// Employees may only read their own evaluations.
	callerID := middleware.GetUserID(r.Context())
	if middleware.GetRole(r.Context()) != "admin" && eval.EmployeeID != callerID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You can only view your own evaluations", r))
		return
	}

	writeJSON(w, http.StatusOK, eval)
}

func (h *EvaluationHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
		return
	}

	callerID := middleware.GetUserID(r.Context())
	if middleware.GetRole(r.Context()) != "admin" && employeeID != callerID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You can only view your own evaluations", r))
		return
	}

	evals, err := h.evalRepo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list evaluations", r))
		return
	}

	writeJSON(w, http.StatusOK, evals)
}

// Update rewrites scores and comments; any stored summary is invalidated.
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid evaluation ID", r))
		return
	}

	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateScores(req.Scores); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	eval, err := h.evalRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Evaluation not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get evaluation", r))
		return
	}

	eval.Scores = req.Scores
	eval.Comments = req.Comments

	if err := h.evalRepo.Update(r.Context(), eval); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update evaluation", r))
		return
	}
	eval.SummaryJSON = nil

	writeJSON(w, http.StatusOK, eval)
}

func (h *EvaluationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid evaluation ID", r))
		return
	}

	if err := h.evalRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete evaluation", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Evaluation deleted"})
}

// Summarize generates the AI summary synchronously (admin only).
func (h *EvaluationHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid evaluation ID", r))
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Evaluation not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// SummarizeMissing enqueues one summary job per evaluation that has no stored
// summary yet (admin only).
func (h *EvaluationHandler) SummarizeMissing(w http.ResponseWriter, r *http.Request) {
	ids, err := h.evalRepo.ListMissingSummaries(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list evaluations", r))
		return
	}

	requestedBy := middleware.GetUserID(r.Context())
	enqueued := 0
	for _, evalID := range ids {
		job := &models.Job{
			RequestedBy: requestedBy,
			Type:        "evaluation-summary",
			ReferenceID: evalID,
		}
		if err := h.pool.Enqueue(r.Context(), job); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue summary jobs", r))
			return
		}
		enqueued++
	}

	writeJSON(w, http.StatusAccepted, map[string]int{"enqueued": enqueued})
}
