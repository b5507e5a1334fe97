package generation

import (
	"context"
	"errors"

	"componentlab/internal/domain"
)

// Generator turns a prompt into component source. A resume handle continues
// an earlier upstream conversation.
type Generator interface {
	Generate(ctx context.Context, promptText string, resumeHandle *string) (*Result, error)
	// Configured reports whether a credential is available. A failed lookup
	// is returned as an error rather than as false.
	Configured(ctx context.Context) (bool, error)
}

// Result is a successful generation.
type Result struct {
	Handle string
	Source string
	Raw    string
}

// ErrNotConfigured is wrapped in a GenerationUnavailable error when no key is set.
var ErrNotConfigured = errors.New("generation provider not configured")

// KeyFunc resolves the provider credential at call time.
type KeyFunc func(ctx context.Context) (string, error)

// StaticKey returns a KeyFunc for a fixed key.
func StaticKey(key string) KeyFunc {
	return func(context.Context) (string, error) { return key, nil }
}

func unavailable(msg string, err error) error {
	return &domain.GenerationError{Kind: domain.GenerationUnavailable, Msg: msg, Err: err}
}

func failed(msg string, err error) error {
	return &domain.GenerationError{Kind: domain.GenerationFailed, Msg: msg, Err: err}
}
