package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

type UserRepo struct {
	db *gorm.DB
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "lower(email) = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.first(ctx, "id = ? AND deleted_at IS NULL", id)
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockedUntil, lastLoginAt *time.Time) error {
	updates := map[string]any{
		"failed_login_count": failedCount,
		"locked_until":       lockedUntil,
	}
	if lastLoginAt != nil {
		updates["last_login_at"] = *lastLoginAt
	}
	return r.update(ctx, id, updates)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": hash})
}

func (r *UserRepo) SetRoles(ctx context.Context, id uuid.UUID, roles []domain.Role) error {
	// Go through the model so the json serializer on Roles applies.
	res := r.db.WithContext(ctx).
		Model(&domain.User{ID: id}).
		Where("deleted_at IS NULL").
		Select("roles", "updated_at").
		Updates(&domain.User{Roles: roles, UpdatedAt: time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("setting roles: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

type AuditRepo struct {
	db *gorm.DB
}

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Changes == "" {
		// jsonb rejects the empty string
		entry.Changes = "{}"
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// List returns matching entries newest first.
func (r *AuditRepo) List(ctx context.Context, q *domain.ListAuditLogsQuery) ([]*domain.AuditLog, int64, error) {
	q.Normalize()

	tx := r.db.WithContext(ctx).Model(&domain.AuditLog{})
	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	}
	if q.ResourceType != "" {
		tx = tx.Where("resource_type = ?", q.ResourceType)
	}
	if q.ResourceID != "" {
		tx = tx.Where("resource_id = ?", q.ResourceID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting audit logs: %w", err)
	}

	var out []*domain.AuditLog
	if err := tx.Order("occurred_at DESC, id DESC").Offset(q.Offset()).Limit(q.PageSize).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("listing audit logs: %w", err)
	}
	return out, total, nil
}
