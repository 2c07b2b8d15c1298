package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

type ScheduleRepo struct {
	db *gorm.DB
}

var _ schedule.Repository = (*ScheduleRepo)(nil)

func (r *ScheduleRepo) BlocksFor(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*schedule.Block, error) {
	var out []*schedule.Block
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		Order("start_time ASC, end_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("loading blocks: %w", err)
	}
	return out, nil
}

// AppointmentsFor returns appointments in [date, date+1 day) in date's
// location, cancelled ones included.
func (r *ScheduleRepo) AppointmentsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*appointment.Appointment, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.AddDate(0, 0, 1)

	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND scheduled_at >= ? AND scheduled_at < ?", doctorID, from, to).
		Order("scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("loading appointments for day: %w", err)
	}
	return out, nil
}

func (r *ScheduleRepo) ListBlocks(ctx context.Context, doctorID uuid.UUID) ([]*schedule.Block, error) {
	var out []*schedule.Block
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("weekday ASC, start_time ASC, end_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	return out, nil
}

func (r *ScheduleRepo) GetBlock(ctx context.Context, id uuid.UUID) (*schedule.Block, error) {
	var b schedule.Block
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schedule.ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading block: %w", err)
	}
	return &b, nil
}

func (r *ScheduleRepo) CreateBlock(ctx context.Context, b *schedule.Block) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("inserting block: %w", err)
	}
	return nil
}

func (r *ScheduleRepo) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&schedule.Block{})
	if res.Error != nil {
		return fmt.Errorf("deleting block: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return schedule.ErrBlockNotFound
	}
	return nil
}
