package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

var validBadges = map[string]bool{
	"team_player":      true,
	"above_and_beyond": true,
	"innovator":        true,
	"helping_hand":     true,
}

type ShoutOutHandler struct {
	shoutOutRepo *repository.ShoutOutRepo
	pubsub       *redis.Client
}

func NewShoutOutHandler(shoutOutRepo *repository.ShoutOutRepo, pubsub *redis.Client) *ShoutOutHandler {
	return &ShoutOutHandler{shoutOutRepo: shoutOutRepo, pubsub: pubsub}
}

func (h *ShoutOutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToID    uuid.UUID `json:"to_id"`
		Message string    `json:"message"`
		Badge   string    `json:"badge"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.ToID == uuid.Nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "to_id and message are required", r))
		return
	}
	if !validBadges[req.Badge] {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown badge", r))
		return
	}

	fromID := middleware.GetUserID(r.Context())
	if req.ToID == fromID {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Cannot give a shout-out to yourself", r))
		return
	}

	shoutout := &models.ShoutOut{
		FromID:  fromID,
		ToID:    req.ToID,
		Message: req.Message,
		Badge:   req.Badge,
	}

	if err := h.shoutOutRepo.Create(r.Context(), shoutout); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create shout-out", r))
		return
	}

	publishFeed(r.Context(), h.pubsub, models.FeedEvent{
		Kind:       "shoutout",
		ResourceID: shoutout.ID,
		ActorID:    fromID,
	})

	writeJSON(w, http.StatusCreated, shoutout)
}

func (h *ShoutOutHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	shoutouts, err := h.shoutOutRepo.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list shout-outs", r))
		return
	}

	writeJSON(w, http.StatusOK, shoutouts)
}
