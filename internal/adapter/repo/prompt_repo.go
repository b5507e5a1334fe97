package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"componentlab/internal/domain"
	"componentlab/internal/infra"
	"componentlab/internal/sqlinline"
)

// PromptRepositoryPG implements domain.PromptRepository on PostgreSQL.
type PromptRepositoryPG struct {
	sql   infra.SQLExecutor
	newID func() string
}

// NewPromptRepository creates a prompt repository over a marker-checked executor.
func NewPromptRepository(sql infra.SQLExecutor) *PromptRepositoryPG {
	return &PromptRepositoryPG{sql: sql, newID: func() string { return uuid.NewString() }}
}

// Create inserts a pending prompt. When the owner already submitted the same
// idempotency key the existing prompt is returned with created=false.
func (r *PromptRepositoryPG) Create(ctx context.Context, p domain.NewPrompt) (*domain.Prompt, bool, error) {
	var key *string
	if p.IdempotencyKey != nil {
		if trimmed := strings.TrimSpace(*p.IdempotencyKey); trimmed != "" {
			key = &trimmed
		}
	}

	row := r.sql.QueryRow(ctx, sqlinline.QInsertPrompt, r.newID(), p.OwnerID, p.PromptText, p.Title, key)
	prompt, err := scanPrompt(row)
	if err == nil {
		return prompt, true, nil
	}
	if !infra.IsNoRows(err) || key == nil {
		return nil, false, storeErr("create prompt", err)
	}

	prompt, err = scanPrompt(r.sql.QueryRow(ctx, sqlinline.QSelectPromptByIdempotencyKey, p.OwnerID, *key))
	if err != nil {
		return nil, false, storeErr("load idempotent prompt", err)
	}
	return prompt, false, nil
}

// ListForOwner returns the owner's prompts, newest first.
func (r *PromptRepositoryPG) ListForOwner(ctx context.Context, ownerID string) ([]domain.Prompt, error) {
	return r.list(ctx, "list prompts", sqlinline.QListPromptsForOwner, ownerID)
}

func (r *PromptRepositoryPG) FindForOwner(ctx context.Context, id, ownerID string) (*domain.Prompt, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	prompt, err := scanPrompt(r.sql.QueryRow(ctx, sqlinline.QSelectPromptForOwner, id, ownerID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("find prompt", err)
	}
	return prompt, nil
}

func (r *PromptRepositoryPG) FindBySlugForOwner(ctx context.Context, slug, ownerID string) (*domain.Prompt, error) {
	prompt, err := scanPrompt(r.sql.QueryRow(ctx, sqlinline.QSelectPromptBySlugForOwner, slug, ownerID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("find prompt by slug", err)
	}
	return prompt, nil
}

// FindByIdempotencyKey returns the prompt the owner already submitted under key.
func (r *PromptRepositoryPG) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Prompt, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrNotFound
	}
	prompt, err := scanPrompt(r.sql.QueryRow(ctx, sqlinline.QSelectPromptByIdempotencyKey, ownerID, key))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("find prompt by idempotency key", err)
	}
	return prompt, nil
}

// Delete removes the owner's prompt and reports how many rows went away.
// Another owner's id deletes nothing.
func (r *PromptRepositoryPG) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeletePromptForOwner, id, ownerID)
	if err != nil {
		return 0, storeErr("delete prompt", err)
	}
	return tag.RowsAffected(), nil
}

// ListEligibleForBuild returns up to limit prompts the worker should attempt,
// least recently updated first.
func (r *PromptRepositoryPG) ListEligibleForBuild(ctx context.Context, limit, maxAttempts int) ([]domain.Prompt, error) {
	return r.list(ctx, "list eligible prompts", sqlinline.QListEligiblePrompts, limit, maxAttempts)
}

func (r *PromptRepositoryPG) MarkBuilding(ctx context.Context, id string, handle *string) error {
	return r.exec(ctx, "mark building", sqlinline.QMarkPromptBuilding, id, handle)
}

// SaveGeneration stores the generated source. A nil handle writes NULL.
func (r *PromptRepositoryPG) SaveGeneration(ctx context.Context, id string, handle *string, source string) error {
	return r.exec(ctx, "save generation", sqlinline.QSavePromptGeneration, id, handle, source)
}

func (r *PromptRepositoryPG) MarkFailed(ctx context.Context, id, reason string) error {
	return r.exec(ctx, "mark failed", sqlinline.QMarkPromptFailed, id, domain.TruncateReason(reason))
}

func (r *PromptRepositoryPG) SaveBuildResult(ctx context.Context, id string, result domain.BuildResult) error {
	sandbox, err := json.Marshal(result.SandboxConfig)
	if err != nil {
		return storeErr("save build result", err)
	}
	return r.exec(ctx, "save build result", sqlinline.QSavePromptBuildResult,
		id, result.Source, result.CompiledArtifact, result.PreviewSlug, sandbox)
}

func (r *PromptRepositoryPG) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := r.sql.Exec(ctx, query, args...); err != nil {
		return storeErr(op, err)
	}
	return nil
}

func (r *PromptRepositoryPG) list(ctx context.Context, op, query string, args ...any) ([]domain.Prompt, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var prompts []domain.Prompt
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		prompts = append(prompts, *prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return prompts, nil
}

func scanPrompt(row pgx.Row) (*domain.Prompt, error) {
	var (
		p       domain.Prompt
		status  string
		sandbox []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.PromptText,
		&p.Title,
		&status,
		&p.GenerationHandle,
		&p.GeneratedSource,
		&p.CompiledArtifact,
		&p.PreviewSlug,
		&p.FailureReason,
		&sandbox,
		&p.AttemptCount,
		&p.IdempotencyKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PromptStatus(status)
	if len(sandbox) > 0 {
		var cfg domain.SandboxConfig
		if err := json.Unmarshal(sandbox, &cfg); err != nil {
			return nil, fmt.Errorf("decode sandbox config: %w", err)
		}
		p.SandboxConfig = &cfg
	}
	return &p, nil
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
