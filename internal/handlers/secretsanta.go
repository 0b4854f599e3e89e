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
)

type SecretSantaHandler struct {
	repo *repository.SecretSantaRepo
	svc  *services.SecretSantaService
}

func NewSecretSantaHandler(repo *repository.SecretSantaRepo, svc *services.SecretSantaService) *SecretSantaHandler {
	return &SecretSantaHandler{repo: repo, svc: svc}
}

func (h *SecretSantaHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string    `json:"name"`
		Budget     float64   `json:"budget"`
		ExchangeOn time.Time `json:"exchange_on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Name == "" || req.ExchangeOn.IsZero() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "name and exchange_on are required", r))
		return
	}

	event := &models.SecretSantaEvent{
		Name:       req.Name,
		Budget:     req.Budget,
		ExchangeOn: req.ExchangeOn,
		CreatedBy:  middleware.GetUserID(r.Context()),
	}

	if err := h.repo.CreateEvent(r.Context(), event); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create event", r))
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *SecretSantaHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event ID", r))
		return
	}

	event, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Event not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get event", r))
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Join signs the caller up before the draw. Joining again just updates the
// wish list.
func (h *SecretSantaHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event ID", r))
		return
	}

	var req struct {
		WishList string `json:"wish_list"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	event, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Event not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get event", r))
		return
	}
	if event.DrawnAt != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Cannot join after the draw", r))
		return
	}

	employeeID := middleware.GetUserID(r.Context())
	if err := h.repo.Join(r.Context(), id, employeeID, req.WishList); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to join event", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined event"})
}

func (h *SecretSantaHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event ID", r))
		return
	}

	participants, err := h.repo.ListParticipants(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list participants", r))
		return
	}

	writeJSON(w, http.StatusOK, participants)
}

// Draw runs the assignment draw (admin only). Assignments are immutable once
// drawn.
func (h *SecretSantaHandler) Draw(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event ID", r))
		return
	}

	assignments, err := h.svc.Draw(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Event not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"assignments": len(assignments)})
}

// MyAssignment tells the caller who they are buying for. Nobody can read
// anyone else's assignment.
func (h *SecretSantaHandler) MyAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid event ID", r))
		return
	}

	employeeID := middleware.GetUserID(r.Context())
	assignment, err := h.repo.GetAssignment(r.Context(), id, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No assignment yet", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get assignment", r))
		return
	}

	writeJSON(w, http.StatusOK, assignment)
}
