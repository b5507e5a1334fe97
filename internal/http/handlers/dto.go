package handlers

import (
	"time"

	"componentlab/internal/domain"
	"componentlab/internal/storage"
)

type eventResponse struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type promptSummary struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Prompt        string          `json:"prompt"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PreviewSlug   *string         `json:"preview_slug"`
	FailureReason *string         `json:"failure_reason"`
	Events        []eventResponse `json:"events"`
}

type promptDetail struct {
	promptSummary
	GeneratedSource  *string               `json:"generated_source"`
	CompiledArtifact *string               `json:"compiled_artifact"`
	SandboxConfig    *domain.SandboxConfig `json:"sandbox_config"`
	ArtifactURL      string                `json:"artifact_url,omitempty"`
}

func toEvents(events []domain.PromptEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:        e.ID,
			Level:     string(e.Level),
			Message:   e.Message,
			Context:   e.Context,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func toSummary(p domain.Prompt, events []domain.PromptEvent) promptSummary {
	return promptSummary{
		ID:            p.ID,
		Title:         p.Title,
		Prompt:        p.PromptText,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		PreviewSlug:   p.PreviewSlug,
		FailureReason: p.FailureReason,
		Events:        toEvents(events),
	}
}

func toDetail(p domain.Prompt, events []domain.PromptEvent, storageBaseURL string) promptDetail {
	detail := promptDetail{
		promptSummary:    toSummary(p, events),
		GeneratedSource:  p.GeneratedSource,
		CompiledArtifact: p.CompiledArtifact,
		SandboxConfig:    p.SandboxConfig,
	}
	if p.Status == domain.PromptStatusReady && p.PreviewSlug != nil {
		detail.ArtifactURL = storage.PreviewURL(storageBaseURL, *p.PreviewSlug)
	}
	return detail
}
