package model

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrTranscriptionFailed    = errors.New("transcription failed")
	ErrCompletionFailed       = errors.New("completion failed")
	ErrSynthesisFailed        = errors.New("synthesis failed")
	ErrNotFoundOrAccessDenied = errors.New("not found or access denied")
	ErrAlreadyExists          = errors.New("already exists")
)

// ValidationError names the constraint a request violated. It is returned
// before any store mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
