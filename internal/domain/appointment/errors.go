package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("appointment time slot is already booked")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrInvalidDate         = errors.New("date is in the past")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrOutsideAvailability = errors.New("requested time is not one of the doctor's slots")
	ErrStatusConflict      = errors.New("appointment status was changed concurrently")
)

// TransitionError reports which move the state machine refused.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition.Error(), e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
