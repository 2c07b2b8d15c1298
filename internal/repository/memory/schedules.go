package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/schedule"
)

type ScheduleRepo struct {
	s *Store
}

var _ schedule.Repository = (*ScheduleRepo)(nil)

func (r *ScheduleRepo) BlocksFor(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*schedule.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*schedule.Block
	for _, b := range r.s.blocks {
		if b.DoctorID == doctorID && b.Weekday == weekday {
			out = append(out, &b)
		}
	}
	sortBlocks(out)
	return out, nil
}

// AppointmentsFor returns appointments in [date, date+1 day) in date's
// location, cancelled ones included.
func (r *ScheduleRepo) AppointmentsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*appointment.Appointment, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.AddDate(0, 0, 1)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID == doctorID && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *ScheduleRepo) ListBlocks(ctx context.Context, doctorID uuid.UUID) ([]*schedule.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*schedule.Block, 0)
	for _, b := range r.s.blocks {
		if b.DoctorID == doctorID {
			out = append(out, &b)
		}
	}
	sortBlocks(out)
	return out, nil
}

func (r *ScheduleRepo) GetBlock(ctx context.Context, id uuid.UUID) (*schedule.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.blocks[id]
	if !ok {
		return nil, schedule.ErrBlockNotFound
	}
	return &b, nil
}

func (r *ScheduleRepo) CreateBlock(ctx context.Context, b *schedule.Block) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&b.ID)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	r.s.blocks[b.ID] = *b
	return nil
}

func (r *ScheduleRepo) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.blocks[id]; !ok {
		return schedule.ErrBlockNotFound
	}
	delete(r.s.blocks, id)
	return nil
}

func sortBlocks(bs []*schedule.Block) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Weekday != bs[j].Weekday {
			return bs[i].Weekday < bs[j].Weekday
		}
		return bs[i].Start < bs[j].Start
	})
}
