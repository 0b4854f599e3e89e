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
)

type MemoHandler struct {
	memoRepo   *repository.MemoRepo
	escalation *services.EscalationService
}

func NewMemoHandler(memoRepo *repository.MemoRepo, escalation *services.EscalationService) *MemoHandler {
	return &MemoHandler{memoRepo: memoRepo, escalation: escalation}
}

func (h *MemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID        uuid.UUID `json:"recipient_id"`
		Subject            string    `json:"subject"`
		Body               string    `json:"body"`
		EscalateAfterHours int       `json:"escalate_after_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.RecipientID == uuid.Nil || req.Subject == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "recipient_id and subject are required", r))
		return
	}
	if req.EscalateAfterHours <= 0 {
		req.EscalateAfterHours = 48
	}

	senderID := middleware.GetUserID(r.Context())
	if req.RecipientID == senderID {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Cannot send a memo to yourself", r))
		return
	}

	memo := &models.Memo{
		SenderID:           senderID,
		RecipientID:        req.RecipientID,
		Subject:            req.Subject,
		Body:               req.Body,
		EscalateAfterHours: req.EscalateAfterHours,
	}

	if err := h.memoRepo.Create(r.Context(), memo); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create memo", r))
		return
	}

	writeJSON(w, http.StatusCreated, memo)
}

// ListMine returns memos addressed to the caller, newest first.
func (h *MemoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	memos, err := h.memoRepo.ListForRecipient(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list memos", r))
		return
	}

	writeJSON(w, http.StatusOK, memos)
}

// MarkRead acknowledges a memo. Reading stops the escalation clock.
func (h *MemoHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid memo ID", r))
		return
	}

	employeeID := middleware.GetUserID(r.Context())
	if err := h.memoRepo.MarkRead(r.Context(), id, employeeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Memo not found or already read", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to mark memo read", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Memo marked as read"})
}

// EscalateNow triggers an escalation sweep outside the schedule (admin only).
func (h *MemoHandler) EscalateNow(w http.ResponseWriter, r *http.Request) {
	result := h.escalation.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, result)
}
