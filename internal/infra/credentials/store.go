package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"componentlab/internal/domain"
	"componentlab/internal/infra"
	"componentlab/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Store reads and writes provider API keys kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("load %s token: %w", provider, err)
	}
	return strings.TrimSpace(token), nil
}

// SetToken upserts the key for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = strings.TrimSpace(strings.ToLower(provider))
	switch provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unsupported provider %q", domain.ErrValidation, provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: api key is required", domain.ErrValidation)
	}
	return s.upsert(ctx, provider, token, map[string]any{"source": "cli"})
}

// KeySource resolves a provider key: the environment value wins, otherwise the
// stored token is read on every call so a key added later is picked up.
func (s *Store) KeySource(provider, envValue string) func(context.Context) (string, error) {
	envValue = strings.TrimSpace(envValue)
	return func(ctx context.Context) (string, error) {
		if envValue != "" {
			return envValue, nil
		}
		if s == nil {
			return "", nil
		}
		return s.Token(ctx, provider)
	}
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
