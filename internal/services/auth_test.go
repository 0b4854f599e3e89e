package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
)

// fakeTokenStore keeps tokens in maps so the session lifecycle can be
// exercised without a live Redis.
type fakeTokenStore struct {
	kv   map[string]string
	sets map[string]map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		kv:   make(map[string]string),
		sets: make(map[string]map[string]bool),
	}
}

func (f *fakeTokenStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.kv[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeTokenStore) Get(ctx context.Context, key string) *redis.StringCmd {
	val, ok := f.kv[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeTokenStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.kv[key]; ok {
			delete(f.kv, key)
			removed++
		}
		if _, ok := f.sets[key]; ok {
			delete(f.sets, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeTokenStore) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]bool)
		f.sets[key] = set
	}
	for _, m := range members {
		set[m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeTokenStore) SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	var removed int64
	for _, m := range members {
		if f.sets[key][m.(string)] {
			delete(f.sets[key], m.(string))
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeTokenStore) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return redis.NewStringSliceResult(members, nil)
}

func (f *fakeTokenStore) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func newTestAuthService(store tokenStore) *AuthService {
	return &AuthService{
		redis: store,
		jwt:   middleware.NewJWTAuth("test-secret"),
	}
}

func testEmployee() *models.Employee {
	return &models.Employee{
		ID:       uuid.New(),
		Email:    "lena@pulsehr.app",
		Role:     "employee",
		IsActive: true,
	}
}

func TestIssueTokensIndexesRefreshToken(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestAuthService(store)
	employee := testEmployee()

	tokens, err := svc.issueTokens(context.Background(), employee)
	if err != nil {
		t.Fatalf("issueTokens failed: %v", err)
	}

	if store.kv["refresh:"+tokens.RefreshToken] != employee.ID.String() {
		t.Fatalf("refresh token not stored against the employee")
	}
	if !store.sets["user_refresh:"+employee.ID.String()][tokens.RefreshToken] {
		t.Fatalf("refresh token missing from the per-employee index")
	}
}

func TestRevokeRefreshTokensKillsAllSessions(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestAuthService(store)
	employee := testEmployee()

	first, err := svc.issueTokens(context.Background(), employee)
	if err != nil {
		t.Fatalf("issueTokens failed: %v", err)
	}
	second, err := svc.issueTokens(context.Background(), employee)
	if err != nil {
		t.Fatalf("issueTokens failed: %v", err)
	}

	if err := svc.RevokeRefreshTokens(context.Background(), employee.ID); err != nil {
		t.Fatalf("RevokeRefreshTokens failed: %v", err)
	}

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		if _, ok := store.kv["refresh:"+tok]; ok {
			t.Fatalf("refresh token survived revocation")
		}
	}
	if _, ok := store.sets["user_refresh:"+employee.ID.String()]; ok {
		t.Fatalf("per-employee index survived revocation")
	}

	// A revoked token must not mint a new session.
	var unauthorized *UnauthorizedError
	if _, err := svc.RefreshToken(context.Background(), first.RefreshToken); !errors.As(err, &unauthorized) {
		t.Fatalf("expected UnauthorizedError for a revoked token, got %v", err)
	}
}

func TestLogoutRemovesTokenAndIndexEntry(t *testing.T) {
	store := newFakeTokenStore()
	svc := newTestAuthService(store)
	employee := testEmployee()

	tokens, err := svc.issueTokens(context.Background(), employee)
	if err != nil {
		t.Fatalf("issueTokens failed: %v", err)
	}

	if err := svc.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, ok := store.kv["refresh:"+tokens.RefreshToken]; ok {
		t.Fatalf("refresh token survived logout")
	}
	if store.sets["user_refresh:"+employee.ID.String()][tokens.RefreshToken] {
		t.Fatalf("index entry survived logout")
	}
}
