package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor is the authenticated identity behind a request. It is passed
// explicitly into every core call; nothing reads a "current user" from
// ambient state.
type Actor struct {
	UserID uuid.UUID
	Roles  []Role

	// Set when the user is registered as a doctor.
	DoctorID *uuid.UUID
	// Set when the user is registered as a patient.
	PatientID *uuid.UUID
}

func (a Actor) HasRole(r Role) bool {
	return slices.Contains(a.Roles, r)
}

// IsAnonymous is true when the actor carries no roles at all.
func (a Actor) IsAnonymous() bool {
	return len(a.Roles) == 0
}

// IsStaffAdmin reports admin or superadmin, which are equivalent outside
// superadmin-only operations.
func (a Actor) IsStaffAdmin() bool {
	return a.HasRole(RoleAdmin) || a.HasRole(RoleSuperAdmin)
}

func (a Actor) IsDoctor(id uuid.UUID) bool {
	return a.HasRole(RoleDoctor) && a.DoctorID != nil && *a.DoctorID == id
}

func (a Actor) IsPatient(id uuid.UUID) bool {
	return a.HasRole(RolePatient) && a.PatientID != nil && *a.PatientID == id
}

func (a Actor) RoleStrings() []string {
	out := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		out[i] = string(r)
	}
	return out
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string `gorm:"column:last_name;type:varchar(100);not null"`
	Roles        []Role `gorm:"column:roles;serializer:json;not null"`

	DoctorID  *uuid.UUID `gorm:"column:doctor_id;type:uuid;index"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	IsActive         bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "auth.users"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

func (u *User) Actor() Actor {
	return Actor{
		UserID:    u.ID,
		Roles:     slices.Clone(u.Roles),
		DoctorID:  u.DoctorID,
		PatientID: u.PatientID,
	}
}

type AuditAction string

const (
	ActionCreate       AuditAction = "create"
	ActionRead         AuditAction = "read"
	ActionUpdate       AuditAction = "update"
	ActionDelete       AuditAction = "delete"
	ActionStatusChange AuditAction = "status_change"
	ActionRoleChange   AuditAction = "role_change"
	ActionLogin        AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRoles string    `gorm:"column:user_roles;type:varchar(100);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"`

	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`
	Changes   string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type ListAuditLogsQuery struct {
	UserID       *uuid.UUID
	ResourceType string
	ResourceID   string
	Page         int
	PageSize     int
}

func (q *ListAuditLogsQuery) Normalize() {
	if q.PageSize <= 0 || q.PageSize > 200 {
		q.PageSize = 50
	}
	if q.Page <= 0 {
		q.Page = 1
	}
}

func (q *ListAuditLogsQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID    uuid.UUID  `json:"sub"`
	Email     string     `json:"email"`
	Roles     []Role     `json:"roles"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}

func (c *Claims) Actor() Actor {
	return Actor{
		UserID:    c.UserID,
		Roles:     slices.Clone(c.Roles),
		DoctorID:  c.DoctorID,
		PatientID: c.PatientID,
	}
}
