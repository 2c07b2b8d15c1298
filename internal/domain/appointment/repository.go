package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// AtomicCreate inserts a pending appointment. The check for another
	// active appointment at the same (doctor, scheduled_at) happens inside
	// the same write; losing that race returns ErrSlotTaken.
	AtomicCreate(ctx context.Context, a *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// AtomicUpdateStatus persists a transitioned appointment only if the
	// stored status still equals expected. Otherwise ErrStatusConflict.
	AtomicUpdateStatus(ctx context.Context, a *Appointment, expected Status) error

	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// Delete removes the row outright. Admin escape hatch only.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListStartingBetween returns appointments in status starting in [from, to).
	// Used by the reminder job.
	ListStartingBetween(ctx context.Context, status Status, from, to time.Time) ([]*Appointment, error)
}
