package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/services"
)

func authedRequest(method, target string, body []byte, userID uuid.UUID, role string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.RoleKey, role)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ─── Admin Handler Tests ───

func TestDeleteEmployeeRejectsInvalidBody(t *testing.T) {
	h := NewAdminHandler(nil, nil)

	req := authedRequest(http.MethodPost, "/api/v1/admin/delete-employee", []byte(`{}`), uuid.New(), "admin")
	rr := httptest.NewRecorder()

	h.DeleteEmployee(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp["success"] != false {
		t.Fatalf("expected success=false, got %v", resp["success"])
	}
}

func TestDeleteEmployeeRejectsSelfDeletion(t *testing.T) {
	h := NewAdminHandler(nil, nil)

	adminID := uuid.New()
	body, _ := json.Marshal(map[string]string{"employeeId": adminID.String()})

	req := authedRequest(http.MethodPost, "/api/v1/admin/delete-employee", body, adminID, "admin")
	rr := httptest.NewRecorder()

	h.DeleteEmployee(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-deletion, got %d", rr.Code)
	}
}

func TestResetPasswordRejectsMismatchedAdminID(t *testing.T) {
	h := NewAdminHandler(nil, nil)

	body, _ := json.Marshal(map[string]string{
		"userId":      uuid.New().String(),
		"newPassword": "Replacement123",
		"adminId":     uuid.New().String(), // not the caller
	})

	req := authedRequest(http.MethodPost, "/api/v1/admin/reset-password", body, uuid.New(), "admin")
	rr := httptest.NewRecorder()

	h.ResetPassword(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestResetPasswordRequiresFields(t *testing.T) {
	h := NewAdminHandler(nil, nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing userId", map[string]string{"newPassword": "Replacement123"}},
		{"missing newPassword", map[string]string{"userId": uuid.New().String()}},
		{"empty body", map[string]string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			req := authedRequest(http.MethodPost, "/api/v1/admin/reset-password", body, uuid.New(), "admin")
			rr := httptest.NewRecorder()

			h.ResetPassword(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

// ─── Attendance Handler Tests ───

func TestRecordCaptureRejectsBadAgentToken(t *testing.T) {
	h := NewAttendanceHandler(nil, nil, "correct-token")

	body, _ := json.Marshal(map[string]string{
		"attendance_id": uuid.New().String(),
		"image_url":     "https://cdn.example.com/x.jpg",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/captures", bytes.NewReader(body))
	req.Header.Set("X-Agent-Token", "wrong-token")
	rr := httptest.NewRecorder()

	h.RecordCapture(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRecordCaptureRejectsEmptyToken(t *testing.T) {
	// An unset server-side token must never accept captures.
	h := NewAttendanceHandler(nil, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/captures", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()

	h.RecordCapture(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRecordCaptureRequiresFields(t *testing.T) {
	h := NewAttendanceHandler(nil, nil, "correct-token")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/captures", bytes.NewReader([]byte(`{"image_url": ""}`)))
	req.Header.Set("X-Agent-Token", "correct-token")
	rr := httptest.NewRecorder()

	h.RecordCapture(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── Shout-Out Handler Tests ───

func TestShoutOutRejectsSelfRecognition(t *testing.T) {
	h := NewShoutOutHandler(nil, nil)

	employeeID := uuid.New()
	body, _ := json.Marshal(map[string]string{
		"to_id":   employeeID.String(),
		"message": "great job me",
		"badge":   "team_player",
	})

	req := authedRequest(http.MethodPost, "/api/v1/shoutouts", body, employeeID, "employee")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestShoutOutRejectsUnknownBadge(t *testing.T) {
	h := NewShoutOutHandler(nil, nil)

	body, _ := json.Marshal(map[string]string{
		"to_id":   uuid.New().String(),
		"message": "nice work",
		"badge":   "participation_trophy",
	})

	req := authedRequest(http.MethodPost, "/api/v1/shoutouts", body, uuid.New(), "employee")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── Memo Handler Tests ───

func TestMemoRejectsSelfRecipient(t *testing.T) {
	h := NewMemoHandler(nil, nil)

	employeeID := uuid.New()
	body, _ := json.Marshal(map[string]interface{}{
		"recipient_id": employeeID.String(),
		"subject":      "note to self",
	})

	req := authedRequest(http.MethodPost, "/api/v1/memos", body, employeeID, "employee")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

// ─── Evaluation Validation Tests ───

func TestValidateScoresBounds(t *testing.T) {
	scores := models.EvaluationScores{
		Productivity:  0,
		Communication: 6,
		Teamwork:      3,
		Initiative:    1,
		Reliability:   5,
	}

	fields := validateScores(scores)
	if fields == nil {
		t.Fatalf("expected validation failures")
	}
	if _, ok := fields["productivity"]; !ok {
		t.Fatalf("expected productivity to fail, got %v", fields)
	}
	if _, ok := fields["communication"]; !ok {
		t.Fatalf("expected communication to fail, got %v", fields)
	}
	if _, ok := fields["teamwork"]; ok {
		t.Fatalf("teamwork=3 should pass, got %v", fields)
	}
}

// ─── Service Error Mapping Tests ───

func TestHandleServiceErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict},
		{"not found", &services.NotFoundError{Message: "missing"}, http.StatusNotFound},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests},
		{"quota", &services.QuotaError{Message: "out of credits"}, http.StatusPaymentRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}
}
