package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"pulsehr-backend/internal/middleware"
	"pulsehr-backend/internal/models"
	"pulsehr-backend/internal/repository"
)

// tokenStore is the slice of the Redis API the auth service touches.
// *redis.Client satisfies it; tests swap in a map-backed fake.
type tokenStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type AuthService struct {
	employeeRepo *repository.EmployeeRepo
	redis        tokenStore
	jwt          *middleware.JWTAuth
	email        *EmailService
}

func NewAuthService(employeeRepo *repository.EmployeeRepo, redisClient *redis.Client, jwt *middleware.JWTAuth, email *EmailService) *AuthService {
	return &AuthService{
		employeeRepo: employeeRepo,
		redis:        redisClient,
		jwt:          jwt,
		email:        email,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Provision creates an employee account with a generated temporary password.
// There is no self-registration; only admins call this.
func (s *AuthService) Provision(ctx context.Context, req models.CreateEmployeeRequest) (*models.Employee, error) {
	fieldErrors := make(map[string]string)

	if req.FullName == "" {
		fieldErrors["full_name"] = "Full name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if req.HourlyRate < 0 {
		fieldErrors["hourly_rate"] = "Hourly rate cannot be negative"
	}
	if req.Role != "" && req.Role != "admin" && req.Role != "employee" {
		fieldErrors["role"] = "Role must be admin or employee"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.employeeRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, &ConflictError{Message: "Email already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}

	employee := &models.Employee{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Department:   req.Department,
		Position:     req.Position,
		HourlyRate:   req.HourlyRate,
		ManagerID:    req.ManagerID,
		Role:         role,
		IsActive:     true,
	}

	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		return nil, err
	}

	go s.email.SendInviteEmail(employee.Email, employee.FullName, tempPassword)

	return employee, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	employee, err := s.employeeRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !employee.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	s.employeeRepo.UpdateLastLogin(ctx, employee.ID)

	return s.issueTokens(ctx, employee)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	employeeIDStr, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	employeeID, err := uuid.Parse(employeeIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid employee ID: %w", err)
	}

	// Delete old token (rotation)
	s.redis.Del(ctx, "refresh:"+refreshToken)
	s.redis.SRem(ctx, "user_refresh:"+employeeIDStr, refreshToken)

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if !employee.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, employee)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if employeeIDStr, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result(); err == nil {
		s.redis.SRem(ctx, "user_refresh:"+employeeIDStr, refreshToken)
	}
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

// RevokeRefreshTokens invalidates every outstanding refresh token for an
// employee. Called after an admin password reset and before an account is
// deleted, so stolen or stale tokens cannot mint new sessions.
func (s *AuthService) RevokeRefreshTokens(ctx context.Context, employeeID uuid.UUID) error {
	setKey := "user_refresh:" + employeeID.String()

	tokens, err := s.redis.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, "refresh:"+token)
	}
	keys = append(keys, setKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, employeeID uuid.UUID, currentPassword, newPassword string) error {
	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(currentPassword)); err != nil {
		return &UnauthorizedError{Message: "Current password is incorrect"}
	}

	if err := validatePassword(newPassword); err != nil {
		return &ValidationError{Fields: map[string]string{"new_password": err.Error()}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.employeeRepo.UpdatePassword(ctx, employeeID, string(hash))
}

// AdminResetPassword sets a new password on behalf of an employee and
// notifies them by email. The caller must already be authorized as admin.
func (s *AuthService) AdminResetPassword(ctx context.Context, employeeID uuid.UUID, newPassword string) (*models.Employee, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"new_password": err.Error()}}
	}

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Employee not found"}
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.employeeRepo.UpdatePassword(ctx, employee.ID, string(hash)); err != nil {
		return nil, err
	}

	if err := s.RevokeRefreshTokens(ctx, employee.ID); err != nil {
		return nil, err
	}

	go s.email.SendPasswordResetNotice(employee.Email, employee.FullName)

	return employee, nil
}

func (s *AuthService) issueTokens(ctx context.Context, employee *models.Employee) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(employee.ID, employee.Email, employee.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	// Store refresh token in Redis (7 days), plus a per-employee index so
	// revocation can find every live token without scanning the keyspace.
	err = s.redis.Set(ctx, "refresh:"+refreshToken, employee.ID.String(), 7*24*time.Hour).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	setKey := "user_refresh:" + employee.ID.String()
	if err := s.redis.SAdd(ctx, setKey, refreshToken).Err(); err != nil {
		return nil, fmt.Errorf("failed to index refresh token: %w", err)
	}
	s.redis.Expire(ctx, setKey, 7*24*time.Hour)

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    900,
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

const tempPasswordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateTempPassword returns a 12-character password that always contains a
// digit, so it passes validatePassword when the employee later changes it.
func generateTempPassword() (string, error) {
	b := make([]byte, 12)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b[i] = tempPasswordAlphabet[n.Int64()]
	}
	digit, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	b[len(b)-1] = byte('0' + digit.Int64())
	return string(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
