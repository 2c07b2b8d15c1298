package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain/appointment"
)

type Repository interface {
	// BlocksFor returns the doctor's recurring blocks for one weekday.
	BlocksFor(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) ([]*Block, error)

	// AppointmentsFor returns every appointment of the doctor, any status,
	// scheduled on the calendar day that starts at date.
	AppointmentsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*appointment.Appointment, error)

	ListBlocks(ctx context.Context, doctorID uuid.UUID) ([]*Block, error)
	GetBlock(ctx context.Context, id uuid.UUID) (*Block, error)
	CreateBlock(ctx context.Context, b *Block) error
	DeleteBlock(ctx context.Context, id uuid.UUID) error
}
