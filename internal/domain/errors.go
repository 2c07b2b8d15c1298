package domain

import (
	"errors"
	"fmt"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

// DeniedError is a Forbidden outcome carrying the rule that produced it.
type DeniedError struct {
	Rule   string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s (rule %s: %s)", ErrForbidden.Error(), e.Rule, e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
)
