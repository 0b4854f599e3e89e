package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/delete-employee", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, uuid.New())
	ctx = context.WithValue(ctx, RoleKey, role)
	return req.WithContext(ctx)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	invoked := false
	handler := jwtAuth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithRole("employee"))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if invoked {
		t.Fatalf("wrapped handler must not run for non-admins")
	}
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	invoked := false
	handler := jwtAuth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithRole("admin"))

	if rr.Code != http.StatusOK || !invoked {
		t.Fatalf("expected wrapped handler to run for admins, got %d (invoked=%v)", rr.Code, invoked)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMiddlewareAttachesClaims(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	employeeID := uuid.New()
	token, err := jwtAuth.GenerateAccessToken(employeeID, "lena@pulsehr.app", "admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotID uuid.UUID
	var gotRole string
	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if gotID != employeeID {
		t.Fatalf("expected user id %s in context, got %s", employeeID, gotID)
	}
	if gotRole != "admin" {
		t.Fatalf("expected role admin in context, got %q", gotRole)
	}
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	other := NewJWTAuth("other-secret")
	token, err := other.GenerateAccessToken(uuid.New(), "lena@pulsehr.app", "employee")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	jwtAuth := NewJWTAuth("test-secret")
	handler := jwtAuth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRateLimiterCapsPerWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	clock := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:51234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if send() != http.StatusOK || send() != http.StatusOK {
		t.Fatalf("requests within the limit must pass")
	}
	if send() != http.StatusTooManyRequests {
		t.Fatalf("request over the limit must get 429")
	}

	// A fresh window resets the count.
	clock = clock.Add(time.Minute)
	if send() != http.StatusOK {
		t.Fatalf("request after the window must pass")
	}
}

func TestRateLimiterKeysAuthenticatedCallersSeparately(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	sendAs := func(employeeID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/memos", nil)
		req.RemoteAddr = "10.0.0.7:51234" // same NAT for everyone
		ctx := context.WithValue(req.Context(), UserIDKey, employeeID)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req.WithContext(ctx))
		return rr.Code
	}

	alice, bob := uuid.New(), uuid.New()
	if sendAs(alice) != http.StatusOK {
		t.Fatalf("first request for alice must pass")
	}
	if sendAs(bob) != http.StatusOK {
		t.Fatalf("bob shares the NAT but must have his own budget")
	}
	if sendAs(alice) != http.StatusTooManyRequests {
		t.Fatalf("second request for alice must get 429")
	}
}
