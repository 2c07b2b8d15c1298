package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
)

type AppointmentRepo struct {
	s *Store
}

var _ appointment.Repository = (*AppointmentRepo)(nil)

// AtomicCreate checks for a live booking at the same instant and inserts
// under the same write lock.
func (r *AppointmentRepo) AtomicCreate(ctx context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.appointments {
		if existing.DoctorID == a.DoctorID && existing.IsActive() && existing.ScheduledAt.Equal(a.ScheduledAt) {
			return appointment.ErrSlotTaken
		}
	}

	ensureID(&a.ID)
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	if a.Status == "" {
		a.Status = appointment.StatusPending
	}
	if a.Version == 0 {
		a.Version = 1
	}

	r.s.appointments[a.ID] = *a
	return nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *AppointmentRepo) AtomicUpdateStatus(ctx context.Context, a *appointment.Appointment, expected appointment.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if cur.Status != expected {
		return appointment.ErrStatusConflict
	}

	r.s.appointments[a.ID] = *a
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	q.Normalize()

	r.s.mu.RLock()
	var matched []*appointment.Appointment
	for _, a := range r.s.appointments {
		if matches(a, q) {
			matched = append(matched, &a)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScheduledAt.Equal(matched[j].ScheduledAt) {
			return matched[i].ScheduledAt.Before(matched[j].ScheduledAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	start := min(q.Offset(), len(matched))
	end := min(start+q.PageSize, len(matched))

	return appointment.NewPage(matched[start:end], total, q), nil
}

func matches(a appointment.Appointment, q *appointment.ListAppointmentsQuery) bool {
	if q.PatientID != nil && a.PatientID != *q.PatientID {
		return false
	}
	if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
		return false
	}
	if q.Status != nil && a.Status != *q.Status {
		return false
	}
	if q.DateFrom != nil && a.ScheduledAt.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && !a.ScheduledAt.Before(*q.DateTo) {
		return false
	}
	return true
}

func (r *AppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *AppointmentRepo) ListStartingBetween(ctx context.Context, status appointment.Status, from, to time.Time) ([]*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.Status == status && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}
