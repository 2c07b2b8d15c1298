package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(u.Email)
	for _, existing := range r.s.users {
		if strings.ToLower(existing.Email) == email && existing.DeletedAt == nil {
			return domain.ErrEmailTaken
		}
	}

	ensureID(&u.ID)
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	stored.Roles = slices.Clone(u.Roles)
	r.s.users[u.ID] = stored
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if strings.ToLower(u.Email) == email && u.DeletedAt == nil {
			u.Roles = slices.Clone(u.Roles)
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	u.Roles = slices.Clone(u.Roles)
	return &u, nil
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, id uuid.UUID, failedCount int, lockedUntil, lastLoginAt *time.Time) error {
	return r.update(id, func(u *domain.User) {
		u.FailedLoginCount = failedCount
		u.LockedUntil = lockedUntil
		if lastLoginAt != nil {
			u.LastLoginAt = lastLoginAt
		}
	})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *UserRepo) SetRoles(ctx context.Context, id uuid.UUID, roles []domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Roles = slices.Clone(roles) })
}

func (r *UserRepo) update(id uuid.UUID, fn func(u *domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.DeletedAt != nil {
		return domain.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&entry.ID)
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

// List returns matching entries newest first.
func (r *AuditRepo) List(ctx context.Context, q *domain.ListAuditLogsQuery) ([]*domain.AuditLog, int64, error) {
	q.Normalize()

	r.s.mu.RLock()
	var out []*domain.AuditLog
	for _, e := range r.s.audit {
		if q.UserID != nil && e.UserID != *q.UserID {
			continue
		}
		if q.ResourceType != "" && e.ResourceType != q.ResourceType {
			continue
		}
		if q.ResourceID != "" && e.ResourceID != q.ResourceID {
			continue
		}
		out = append(out, &e)
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	total := int64(len(out))
	start := min(q.Offset(), len(out))
	end := min(start+q.PageSize, len(out))
	return out[start:end], total, nil
}
