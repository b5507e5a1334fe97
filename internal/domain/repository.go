package domain

import "context"

// PromptRepository persists prompts and their lifecycle transitions.
type PromptRepository interface {
	Create(ctx context.Context, p NewPrompt) (*Prompt, bool, error)
	ListForOwner(ctx context.Context, ownerID string) ([]Prompt, error)
	FindForOwner(ctx context.Context, id, ownerID string) (*Prompt, error)
	FindBySlugForOwner(ctx context.Context, slug, ownerID string) (*Prompt, error)
	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*Prompt, error)
	Delete(ctx context.Context, id, ownerID string) (int64, error)

	ListEligibleForBuild(ctx context.Context, limit, maxAttempts int) ([]Prompt, error)
	MarkBuilding(ctx context.Context, id string, handle *string) error
	SaveGeneration(ctx context.Context, id string, handle *string, source string) error
	MarkFailed(ctx context.Context, id, reason string) error
	SaveBuildResult(ctx context.Context, id string, result BuildResult) error
}

// EventLog is the append-only audit trail. Record never fails the caller.
type EventLog interface {
	Record(ctx context.Context, promptID string, level EventLevel, message string, fields map[string]any)
	ListRecent(ctx context.Context, promptID string, limit int) ([]PromptEvent, error)
	ListRecentForMany(ctx context.Context, promptIDs []string, perPromptLimit int) (map[string][]PromptEvent, error)
}
