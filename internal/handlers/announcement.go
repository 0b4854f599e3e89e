package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/services"
	"pulsehr-backend/internal/storage"
)

const maxAttachmentBytes = 20 << 20 // 20 MB

type AnnouncementHandler struct {
	announcementRepo *repository.AnnouncementRepo
	uploader         storage.Uploader
	extractor        *services.DocExtractService
	pubsub           *redis.Client
}

func NewAnnouncementHandler(announcementRepo *repository.AnnouncementRepo, uploader storage.Uploader, extractor *services.DocExtractService, pubsub *redis.Client) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementRepo: announcementRepo,
		uploader:         uploader,
		extractor:        extractor,
		pubsub:           pubsub,
	}
}

// publishFeed pushes a company-wide event onto the shared feed channel. The
// websocket hub fans it out to every connected employee.
func publishFeed(ctx context.Context, client *redis.Client, event models.FeedEvent) {
	msg := models.WSMessage{Type: "feed_event", Payload: event}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	client.Publish(ctx, "company_feed", string(data))
}

// Create posts a company announcement (admin only). Multipart so an optional
// attachment can ride along; text is extracted from PDF, TXT, and DOCX
// attachments for inline preview.
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}

	title := r.FormValue("title")
	body := r.FormValue("body")
	if title == "" || body == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title and body are required", r))
		return
	}
	pinned, _ := strconv.ParseBool(r.FormValue("pinned"))

	announcement := &models.Announcement{
		AuthorID: middleware.GetUserID(r.Context()),
		Title:    title,
		Body:     body,
		Pinned:   pinned,
	}

	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read attachment", r))
			return
		}

		contentType := header.Header.Get("Content-Type")
		path := fmt.Sprintf("announcements/%s/%s", uuid.New(), header.Filename)
		url, err := h.uploader.Upload(r.Context(), path, data, contentType)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store attachment", r))
			return
		}
		announcement.AttachmentURL = &url

		// Preview text is best-effort; unsupported formats just skip it.
		if text, err := h.extractor.ExtractText(header.Filename, data); err == nil {
			announcement.AttachmentText = &text
		} else {
			log.Printf("announcement attachment %s: no text extracted: %v", header.Filename, err)
		}
	}

	if err := h.announcementRepo.Create(r.Context(), announcement); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create announcement", r))
		return
	}

	publishFeed(r.Context(), h.pubsub, models.FeedEvent{
		Kind:       "announcement",
		ResourceID: announcement.ID,
		ActorID:    announcement.AuthorID,
	})

	writeJSON(w, http.StatusCreated, announcement)
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	announcements, err := h.announcementRepo.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list announcements", r))
		return
	}

	writeJSON(w, http.StatusOK, announcements)
}

func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	announcement, err := h.announcementRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Announcement not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get announcement", r))
		return
	}

	writeJSON(w, http.StatusOK, announcement)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	if err := h.announcementRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete announcement", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Announcement deleted"})
}

// ToggleReaction adds the emoji reaction, or removes it when the same
// employee reacts with the same emoji again.
func (h *AnnouncementHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Emoji is required", r))
		return
	}

	employeeID := middleware.GetUserID(r.Context())
	added, err := h.announcementRepo.ToggleReaction(r.Context(), id, employeeID, req.Emoji)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to toggle reaction", r))
		return
	}

	if added {
		publishFeed(r.Context(), h.pubsub, models.FeedEvent{
			Kind:       "reaction",
			ResourceID: id,
			ActorID:    employeeID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"reacted": added})
}

func (h *AnnouncementHandler) ListReactions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	reactions, err := h.announcementRepo.ListReactions(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list reactions", r))
		return
	}

	writeJSON(w, http.StatusOK, reactions)
}

func (h *AnnouncementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Comment body is required", r))
		return
	}

	comment := &models.Comment{
		AnnouncementID: id,
		EmployeeID:     middleware.GetUserID(r.Context()),
		Body:           req.Body,
	}

	if err := h.announcementRepo.AddComment(r.Context(), comment); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to add comment", r))
		return
	}

	publishFeed(r.Context(), h.pubsub, models.FeedEvent{
		Kind:       "comment",
		ResourceID: id,
		ActorID:    comment.EmployeeID,
	})

	writeJSON(w, http.StatusCreated, comment)
}

func (h *AnnouncementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid announcement ID", r))
		return
	}

	comments, err := h.announcementRepo.ListComments(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list comments", r))
		return
	}

	writeJSON(w, http.StatusOK, comments)
}
