package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/services"
	"pulsehr-backend/internal/storage"
)

const maxAvatarBytes = 5 << 20 // 5 MB

type EmployeeHandler struct {
	employeeRepo *repository.EmployeeRepo
	authService  *services.AuthService
	uploader     storage.Uploader
}

func NewEmployeeHandler(employeeRepo *repository.EmployeeRepo, authService *services.AuthService, uploader storage.Uploader) *EmployeeHandler {
	return &EmployeeHandler{
		employeeRepo: employeeRepo,
		authService:  authService,
		uploader:     uploader,
	}
}

// Create provisions a new employee account (admin only). The temporary
// password is emailed, never returned.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	employee, err := h.authService.Provision(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employeeRepo.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list employees", r))
		return
	}

	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
		return
	}

	employee, err := h.employeeRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Employee not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get employee", r))
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid employee ID", r))
		return
	}

	var req models.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	employee, err := h.employeeRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Employee not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to get employee", r))
		return
	}

	if req.FullName != nil {
		employee.FullName = *req.FullName
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Position != nil {
		employee.Position = *req.Position
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Hourly rate cannot be negative", r))
			return
		}
		employee.HourlyRate = *req.HourlyRate
	}
	if req.ManagerID != nil {
		if *req.ManagerID == id {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Employee cannot be their own manager", r))
			return
		}
		employee.ManagerID = req.ManagerID
	}
	if req.Role != nil {
		if *req.Role != "admin" && *req.Role != "employee" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Role must be admin or employee", r))
			return
		}
		employee.Role = *req.Role
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := h.employeeRepo.Update(r.Context(), employee); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update employee", r))
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

// OrgChart returns the reporting tree rooted at employees without a manager.
func (h *EmployeeHandler) OrgChart(w http.ResponseWriter, r *http.Request) {
	roots, err := h.employeeRepo.OrgChart(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to build org chart", r))
		return
	}

	writeJSON(w, http.StatusOK, roots)
}

// UploadAvatar replaces the caller's own avatar.
func (h *EmployeeHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Avatar file is required", r))
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Avatar must be under 5 MB", r))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to read avatar", r))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Avatar must be a JPEG, PNG, or WebP image", r))
		return
	}

	url, err := h.uploader.Upload(r.Context(), fmt.Sprintf("avatars/%s", employeeID), data, contentType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store avatar", r))
		return
	}

	employee, err := h.employeeRepo.GetByID(r.Context(), employeeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load employee", r))
		return
	}
	employee.AvatarURL = &url

	if err := h.employeeRepo.Update(r.Context(), employee); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save avatar", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}
