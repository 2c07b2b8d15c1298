package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/scheduling"
)

// SlotCache stores computed slot listings. It is advisory: bookings always
// re-check against the store, and any error is treated as a miss.
//
// Get reports the doctor's cache generation alongside a miss; the listing
// computed after that miss must be handed back to Set with the same
// generation, so an Invalidate in between orphans it instead of being
// overwritten by it.
type SlotCache interface {
	Get(ctx context.Context, doctorID uuid.UUID, date time.Time) (slots []scheduling.Slot, gen int64, hit bool, err error)
	Set(ctx context.Context, doctorID uuid.UUID, date time.Time, gen int64, slots []scheduling.Slot) error
	// Invalidate drops every cached listing of the doctor.
	Invalidate(ctx context.Context, doctorID uuid.UUID) error
}

type NopSlotCache struct{}

func (NopSlotCache) Get(context.Context, uuid.UUID, time.Time) ([]scheduling.Slot, int64, bool, error) {
	return nil, 0, false, nil
}

func (NopSlotCache) Set(context.Context, uuid.UUID, time.Time, int64, []scheduling.Slot) error {
	return nil
}

func (NopSlotCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}
