package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
)

type AppointmentRepo struct {
	db *gorm.DB
}

var _ appointment.Repository = (*AppointmentRepo)(nil)

// AtomicCreate relies on uq_appointments_doctor_slot: two concurrent inserts
// for the same active (doctor, scheduled_at) cannot both commit.
func (r *AppointmentRepo) AtomicCreate(ctx context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Status = appointment.StatusPending
	a.Version = 1

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isSlotViolation(err) {
			return appointment.ErrSlotTaken
		}
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepo) AtomicUpdateStatus(ctx context.Context, a *appointment.Appointment, expected appointment.Status) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", a.ID, expected).
		Updates(map[string]any{
			"status":       a.Status,
			"confirmed_at": a.ConfirmedAt,
			"completed_at": a.CompletedAt,
			"cancelled_at": a.CancelledAt,
			"cancelled_by": a.CancelledBy,
			"version":      a.Version,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating appointment status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("id = ?", a.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("checking appointment: %w", err)
	}
	if count == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return appointment.ErrStatusConflict
}

func (r *AppointmentRepo) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	q.Normalize()

	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		tx = tx.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("scheduled_at < ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var items []*appointment.Appointment
	if err := tx.Order("scheduled_at ASC, id ASC").Offset(q.Offset()).Limit(q.PageSize).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return appointment.NewPage(items, total, q), nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&appointment.Appointment{})
	if res.Error != nil {
		return fmt.Errorf("deleting appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepo) ListStartingBetween(ctx context.Context, status appointment.Status, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at >= ? AND scheduled_at < ?", status, from, to).
		Order("scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments in window: %w", err)
	}
	return out, nil
}
