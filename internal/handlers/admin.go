package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/repository"
	"pulsehr-backend/internal/services"
)

// AdminHandler carries the privileged operations that act on other accounts.
type AdminHandler struct {
	employeeRepo *repository.EmployeeRepo
	authService  *services.AuthService
}

func NewAdminHandler(employeeRepo *repository.EmployeeRepo, authService *services.AuthService) *AdminHandler {
	return &AdminHandler{employeeRepo: employeeRepo, authService: authService}
}

// DeleteEmployee removes an employee and every row that references them in a
// single transaction.
func (h *AdminHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID uuid.UUID `json:"employeeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmployeeID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "employeeId is required",
		})
		return
	}

	if req.EmployeeID == middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Admins cannot delete their own account",
		})
		return
	}

	if err := h.employeeRepo.DeleteCascade(r.Context(), req.EmployeeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "Employee not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to delete employee",
		})
		return
	}

	// The account row is gone; kill any sessions it still holds.
	if err := h.authService.RevokeRefreshTokens(r.Context(), req.EmployeeID); err != nil {
		log.Printf("✗ Failed to revoke refresh tokens for deleted employee %s: %v", req.EmployeeID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Employee and all related records deleted",
	})
}

// ResetPassword sets a new password for another account. The admin id in the
// body must match the authenticated caller.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      uuid.UUID `json:"userId"`
		NewPassword string    `json:"newPassword"`
		AdminID     uuid.UUID `json:"adminId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "userId and newPassword are required", r))
		return
	}

	if req.AdminID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "adminId does not match the authenticated admin", r))
		return
	}

	employee, err := h.authService.AdminResetPassword(r.Context(), req.UserID, req.NewPassword)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        employee.ID,
		"email":     employee.Email,
		"full_name": employee.FullName,
		"role":      employee.Role,
	})
}
