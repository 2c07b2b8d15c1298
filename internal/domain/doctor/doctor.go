package doctor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

type Doctor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FirstName   string     `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string     `gorm:"column:last_name;type:varchar(100);not null"`
	SpecialtyID *uuid.UUID `gorm:"column:specialty_id;type:uuid;index"`
	License     string     `gorm:"column:license;type:varchar(50)"`
	IsActive    bool       `gorm:"column:is_active;default:true;index"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type Specialty struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name string    `gorm:"column:name;type:varchar(100);not null;uniqueIndex" json:"name"`
}

func (Specialty) TableName() string {
	return "clinical.specialties"
}

type ListDoctorsQuery struct {
	SpecialtyID *uuid.UUID
	Search      string
	Page        int
	PageSize    int
}

type Repository interface {
	// GetByID returns ErrDoctorNotFound for unknown or inactive doctors.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, q *ListDoctorsQuery) ([]*Doctor, int64, error)
	ListSpecialties(ctx context.Context) ([]*Specialty, error)
}

func (q *ListDoctorsQuery) Normalize() {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
}

func (q *ListDoctorsQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
