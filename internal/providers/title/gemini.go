package title

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type GeminiOptions struct {
	Key        KeyFunc
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	OnFallback func(reason string, err error)
}

type GeminiSummarizer struct {
	key        KeyFunc
	model      string
	baseURL    string
	client     *http.Client
	onFallback fallbackHook
}

const geminiDefaultTimeout = 10 * time.Second

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	CandidateCount  int     `json:"candidateCount,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiSummarizer(opts GeminiOptions) *GeminiSummarizer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiSummarizer{
		key:        opts.Key,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		onFallback: opts.OnFallback,
	}
}

func (g *GeminiSummarizer) TitleFor(ctx context.Context, promptText string) string {
	if strings.TrimSpace(promptText) == "" {
		return Fallback(promptText)
	}
	key := ""
	if g.key != nil {
		k, err := g.key(ctx)
		if err != nil {
			return g.useFallback(promptText, "load_api_key", err)
		}
		key = strings.TrimSpace(k)
	}
	if key == "" {
		return g.useFallback(promptText, "missing_api_key", nil)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: titlePrompt(promptText)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.2,
			CandidateCount:  1,
			MaxOutputTokens: 24,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.useFallback(promptText, "encode_request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return g.useFallback(promptText, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", key)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return g.useFallback(promptText, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.useFallback(promptText, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("gemini status %d", resp.StatusCode))
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.useFallback(promptText, "decode_response", err)
	}
	title := cleanTitle(extractText(out))
	if title == "" {
		return g.useFallback(promptText, "empty_response", errors.New("empty title"))
	}
	return title
}

func (g *GeminiSummarizer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func (g *GeminiSummarizer) useFallback(promptText, reason string, err error) string {
	g.onFallback.emit(reason, err)
	return Fallback(promptText)
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

var _ Summarizer = (*GeminiSummarizer)(nil)
