package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

// PromptStatus enumerates prompt lifecycle states.
type PromptStatus string

const (
	PromptStatusPending  PromptStatus = "pending"
	PromptStatusBuilding PromptStatus = "building"
	PromptStatusReady    PromptStatus = "ready"
	PromptStatusFailed   PromptStatus = "failed"
)

// MaxFailureReasonLength caps persisted failure reasons, in runes.
const MaxFailureReasonLength = 2000

// Prompt is a submitted UI description and the artifacts built from it.
type Prompt struct {
	ID               string
	OwnerID          string
	PromptText       string
	Title            string
	Status           PromptStatus
	GenerationHandle *string
	GeneratedSource  *string
	CompiledArtifact *string
	PreviewSlug      *string
	FailureReason    *string
	SandboxConfig    *SandboxConfig
	AttemptCount     int
	IdempotencyKey   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPrompt carries the intake fields for a prompt record.
type NewPrompt struct {
	OwnerID        string
	PromptText     string
	Title          string
	IdempotencyKey *string
}

// BuildResult is persisted in one update when a build succeeds.
type BuildResult struct {
	Source           string
	CompiledArtifact string
	PreviewSlug      string
	SandboxConfig    SandboxConfig
}

// CheckInvariants reports the first lifecycle invariant p violates.
func (p *Prompt) CheckInvariants() error {
	switch p.Status {
	case PromptStatusReady:
		if p.CompiledArtifact == nil {
			return errors.New("ready prompt without compiled artifact")
		}
		if p.FailureReason != nil {
			return errors.New("ready prompt with failure reason")
		}
	case PromptStatusFailed:
		if p.FailureReason == nil {
			return errors.New("failed prompt without failure reason")
		}
	case PromptStatusPending, PromptStatusBuilding:
		if p.CompiledArtifact != nil {
			return errors.New("unfinished prompt with compiled artifact")
		}
	default:
		return errors.New("unknown status " + string(p.Status))
	}
	return nil
}

// TruncateReason bounds a failure reason to MaxFailureReasonLength runes.
func TruncateReason(reason string) string {
	if utf8.RuneCountInString(reason) <= MaxFailureReasonLength {
		return reason
	}
	runes := []rune(reason)
	return string(runes[:MaxFailureReasonLength])
}

// EventLevel is the severity of a prompt event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "info"
	EventLevelError EventLevel = "error"
)

// PromptEvent is one append-only audit entry for a prompt.
type PromptEvent struct {
	ID        int64
	PromptID  string
	Level     EventLevel
	Message   string
	Context   map[string]any
	CreatedAt time.Time
}
