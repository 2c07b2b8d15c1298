package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/access"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
)

type CreateAdminCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type PagedAuditLogs struct {
	Entries    []*domain.AuditLog
	TotalCount int64
	Page       int
	PageSize   int
}

// AdminService holds the superadmin-only operations.
type AdminService struct {
	users    UserRepository
	auditSvc *AuditService
	guard    guard
	log      *zap.Logger
}

func NewAdminService(users UserRepository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *AdminService {
	return &AdminService{users: users, auditSvc: auditSvc, guard: newGuard(m, log), log: log}
}

func (s *AdminService) SetRoles(ctx context.Context, actor domain.Actor, userID uuid.UUID, roles []domain.Role) (*domain.User, error) {
	if err := s.guard.check(actor, access.Resource{Type: access.ResourceUser, ID: userID}, access.OpManageRoles); err != nil {
		return nil, err
	}

	var fields []string
	if len(roles) == 0 {
		fields = append(fields, "roles must not be empty")
	}
	seen := make(map[domain.Role]bool, len(roles))
	deduped := make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		if !r.IsValid() {
			fields = append(fields, fmt.Sprintf("unknown role %q", r))
			continue
		}
		if !seen[r] {
			seen[r] = true
			deduped = append(deduped, r)
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if actor.UserID == userID && !seen[domain.RoleSuperAdmin] {
		return nil, &ValidationError{Fields: []string{"superadmins cannot revoke their own superadmin role"}}
	}

	if err := s.users.SetRoles(ctx, userID, deduped); err != nil {
		return nil, fmt.Errorf("setting roles: %w", err)
	}

	changes, _ := json.Marshal(map[string][]domain.Role{"from": user.Roles, "to": deduped})
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionRoleChange,
		ResourceType: string(access.ResourceUser),
		ResourceID:   userID.String(),
		Changes:      string(changes),
	})

	s.log.Info("user roles changed",
		zap.String("user_id", userID.String()),
		zap.String("by", actor.UserID.String()),
	)

	user.Roles = deduped
	return user, nil
}

func (s *AdminService) CreateAdmin(ctx context.Context, actor domain.Actor, cmd *CreateAdminCommand) (*domain.User, error) {
	if err := s.guard.check(actor, access.Global(access.ResourceUser), access.OpCreateAdmin); err != nil {
		return nil, err
	}

	var fields []string
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, "email is invalid")
	}
	if strings.TrimSpace(cmd.FirstName) == "" || strings.TrimSpace(cmd.LastName) == "" {
		fields = append(fields, "first and last name are required")
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			fields = append(fields, verr.Fields...)
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
		Roles:        []domain.Role{domain.RoleAdmin},
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("creating admin: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: string(access.ResourceUser),
		ResourceID:   u.ID.String(),
	})

	return u, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, actor domain.Actor, q *domain.ListAuditLogsQuery) (*PagedAuditLogs, error) {
	if err := s.guard.check(actor, access.Global(access.ResourceAuditLog), access.OpViewAuditLog); err != nil {
		return nil, err
	}

	q.Normalize()
	entries, total, err := s.auditSvc.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}

	return &PagedAuditLogs{Entries: entries, TotalCount: total, Page: q.Page, PageSize: q.PageSize}, nil
}
