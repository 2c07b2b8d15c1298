package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/patient"
)

type DoctorRepo struct {
	db *gorm.DB
}

var _ doctor.Repository = (*DoctorRepo)(nil)

func (r *DoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where("id = ? AND is_active", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepo) List(ctx context.Context, q *doctor.ListDoctorsQuery) ([]*doctor.Doctor, int64, error) {
	q.Normalize()

	tx := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("is_active")
	if q.SpecialtyID != nil {
		tx = tx.Where("specialty_id = ?", *q.SpecialtyID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		tx = tx.Where("(first_name || ' ' || last_name) ILIKE ?", "%"+escapeLike(s)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting doctors: %w", err)
	}

	var out []*doctor.Doctor
	if err := tx.Order("last_name ASC, id ASC").Offset(q.Offset()).Limit(q.PageSize).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("listing doctors: %w", err)
	}
	return out, total, nil
}

func (r *DoctorRepo) ListSpecialties(ctx context.Context) ([]*doctor.Specialty, error) {
	var out []*doctor.Specialty
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing specialties: %w", err)
	}
	return out, nil
}

type PatientRepo struct {
	db *gorm.DB
}

var _ patient.Repository = (*PatientRepo)(nil)

func (r *PatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
