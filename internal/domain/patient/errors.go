package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrPatientInactive = errors.New("patient is not active")
	ErrInvalidGender   = errors.New("invalid gender value")
)
