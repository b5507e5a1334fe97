package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIOptions struct {
	Key             KeyFunc
	Model           string
	BaseURL         string
	Organization    string
	ReasoningEffort string
	OutputField     string
	HTTPClient      *http.Client
	// OnResumeRejected is called when the upstream refuses a resume handle and
	// the request is retried as a fresh conversation.
	OnResumeRejected func(handle string, status int)
}

// OpenAIGenerator calls the OpenAI Responses API. The response id is the
// resume handle for the next attempt.
type OpenAIGenerator struct {
	key              KeyFunc
	model            string
	baseURL          string
	organization     string
	effort           string
	field            string
	client           *http.Client
	onResumeRejected func(handle string, status int)
}

const (
	openAIDefaultTimeout = 120 * time.Second
	defaultOpenAIModel   = "gpt-5-mini"
	maxErrorBody         = 512
)

const systemInstructions = `You write a single self-contained React function component from the user's description.
Use only React (available as a global and via require("react")). No external packages, no CSS imports.
Export the component as the default export.
Respond with a JSON object of the form {"%s": "<component source>"} and nothing else.`

type responsesRequest struct {
	Model              string           `json:"model"`
	Instructions       string           `json:"instructions"`
	Input              string           `json:"input"`
	PreviousResponseID string           `json:"previous_response_id,omitempty"`
	Reasoning          *reasoningConfig `json:"reasoning,omitempty"`
	Text               textConfig       `json:"text"`
}

type reasoningConfig struct {
	Effort string `json:"effort"`
}

type textConfig struct {
	Format textFormat `json:"format"`
}

type textFormat struct {
	Type string `json:"type"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	field := strings.TrimSpace(opts.OutputField)
	if field == "" {
		field = DefaultOutputField
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	key := opts.Key
	if key == nil {
		key = StaticKey("")
	}
	return &OpenAIGenerator{
		key:              key,
		model:            model,
		baseURL:          baseURL,
		organization:     strings.TrimSpace(opts.Organization),
		effort:           strings.TrimSpace(opts.ReasoningEffort),
		field:            field,
		client:           client,
		onResumeRejected: opts.OnResumeRejected,
	}
}

// Configured reports whether a credential is currently available.
func (g *OpenAIGenerator) Configured(ctx context.Context) (bool, error) {
	key, err := g.key(ctx)
	if err != nil {
		return false, fmt.Errorf("load api key: %w", err)
	}
	return strings.TrimSpace(key) != "", nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, promptText string, resumeHandle *string) (*Result, error) {
	key, err := g.key(ctx)
	if err != nil {
		return nil, unavailable("load api key", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, unavailable("openai", ErrNotConfigured)
	}

	handle := ""
	if resumeHandle != nil {
		handle = strings.TrimSpace(*resumeHandle)
	}
	out, status, err := g.call(ctx, key, promptText, handle)
	if err != nil && handle != "" && (status == http.StatusNotFound || status == http.StatusBadRequest) {
		if g.onResumeRejected != nil {
			g.onResumeRejected(handle, status)
		}
		out, _, err = g.call(ctx, key, promptText, "")
	}
	if err != nil {
		return nil, err
	}

	raw := out.text()
	source, err := ExtractSource(raw, g.field)
	if err != nil {
		return nil, failed("unusable model output", err)
	}
	return &Result{Handle: out.ID, Source: source, Raw: raw}, nil
}

func (g *OpenAIGenerator) call(ctx context.Context, key, promptText, handle string) (*responsesResponse, int, error) {
	payload := responsesRequest{
		Model:              g.model,
		Instructions:       fmt.Sprintf(systemInstructions, g.field),
		Input:              promptText,
		PreviousResponseID: handle,
		Text:               textConfig{Format: textFormat{Type: "json_object"}},
	}
	if g.effort != "" {
		payload.Reasoning = &reasoningConfig{Effort: g.effort}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, 0, unavailable("encode request", err)
	}
	endpoint := fmt.Sprintf("%s/responses", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, 0, unavailable("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	if g.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", g.organization)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, unavailable("openai request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, unavailable(fmt.Sprintf("openai status %d", resp.StatusCode), errors.New(strings.TrimSpace(string(body))))
	}

	var out responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, unavailable("decode response", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, resp.StatusCode, unavailable("openai response error", errors.New(out.Error.Message))
	}
	return &out, resp.StatusCode, nil
}

func (r *responsesResponse) text() string {
	var sb strings.Builder
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

var _ Generator = (*OpenAIGenerator)(nil)
