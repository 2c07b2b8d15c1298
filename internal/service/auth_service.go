package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockedUntil, lastLoginAt *time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetRoles(ctx context.Context, id uuid.UUID, roles []domain.Role) error
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	clock      clock.Clock
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, auditSvc *AuditService, c clock.Clock, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager, auditSvc: auditSvc, clock: c, log: log}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		// An attacker measuring response time should not be able to determine
		// whether the email exists in the system.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.clock.Now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		failed := user.FailedLoginCount + 1
		var lockedUntil *time.Time
		if failed >= maxFailedAttempts {
			until := now.Add(lockDuration)
			lockedUntil = &until
			failed = 0
		}
		if uerr := s.userRepo.UpdateLoginState(ctx, user.ID, failed, lockedUntil, nil); uerr != nil {
			s.log.Error("failed to record login attempt", zap.Error(uerr))
		}
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", RequestMetaFrom(ctx).IPAddress),
			zap.Bool("locked", lockedUntil != nil),
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLoginState(ctx, user.ID, 0, nil, &now); err != nil {
		s.log.Error("failed to record login", zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(claimsFor(user))
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        user.Actor(),
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", RequestMetaFrom(ctx).IPAddress),
	)

	return pair, nil
}

// RefreshToken issues a new token pair given a valid refresh token. Roles
// are re-read so that revoked roles take effect at the next refresh.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(claimsFor(user))
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func claimsFor(u *domain.User) *domain.Claims {
	return &domain.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Roles:     u.Roles,
		DoctorID:  u.DoctorID,
		PatientID: u.PatientID,
	}
}

func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return &ValidationError{Fields: []string{"password must be at least 12 characters"}}
	}
	return nil
}
