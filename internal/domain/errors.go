package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotReady     = errors.New("prompt not ready")
)

// GenerationErrorKind separates retryable unavailability from bad model output.
type GenerationErrorKind string

const (
	GenerationUnavailable GenerationErrorKind = "generation_unavailable"
	GenerationFailed      GenerationErrorKind = "generation_failed"
)

// GenerationError is returned by generation adapters.
type GenerationError struct {
	Kind GenerationErrorKind
	Msg  string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// CompilationError is returned when source cannot be transformed.
type CompilationError struct {
	Msg string
}

func (e *CompilationError) Error() string { return "compilation failed: " + e.Msg }

// Kind returns the error kind recorded in failure events.
func (e *CompilationError) Kind() string { return "compilation_failed" }

// StoreError wraps persistence failures. The worker treats it as tick-fatal.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err carries a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
