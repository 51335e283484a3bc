package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user-scoped record does not exist
	ErrNotFound = errors.New("not found")
	// ErrRewardLocked is returned when a gated feature's reward is not unlocked
	ErrRewardLocked = errors.New("reward locked")
)

// ValidationError rejects input before anything is stored or sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
