package title

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenAIOptions struct {
	Key          KeyFunc
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	OnFallback   func(reason string, err error)
}

// OpenAISummarizer asks the chat completions endpoint for a short title.
type OpenAISummarizer struct {
	key          KeyFunc
	model        string
	baseURL      string
	organization string
	client       *http.Client
	onFallback   fallbackHook
}

const (
	openAIDefaultTimeout = 10 * time.Second
	defaultOpenAIModel   = "gpt-4o-mini"
)

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAISummarizer(opts OpenAIOptions) *OpenAISummarizer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAISummarizer{
		key:          opts.Key,
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		onFallback:   opts.OnFallback,
	}
}

func (o *OpenAISummarizer) TitleFor(ctx context.Context, promptText string) string {
	if strings.TrimSpace(promptText) == "" {
		return Fallback(promptText)
	}
	key := ""
	if o.key != nil {
		k, err := o.key(ctx)
		if err != nil {
			return o.useFallback(promptText, "load_api_key", err)
		}
		key = strings.TrimSpace(k)
	}
	if key == "" {
		return o.useFallback(promptText, "missing_api_key", nil)
	}

	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.2,
		MaxTokens:   24,
		Messages: []openAIMessage{
			{Role: "system", Content: "You name UI components. Reply with a short title only."},
			{Role: "user", Content: titlePrompt(promptText)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.useFallback(promptText, "encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return o.useFallback(promptText, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.useFallback(promptText, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.useFallback(promptText, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.useFallback(promptText, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return o.useFallback(promptText, "empty_choices", errors.New("no choices"))
	}
	title := cleanTitle(out.Choices[0].Message.Content)
	if title == "" {
		return o.useFallback(promptText, "empty_response", errors.New("empty title"))
	}
	return title
}

func (o *OpenAISummarizer) useFallback(promptText, reason string, err error) string {
	o.onFallback.emit(reason, err)
	return Fallback(promptText)
}

var _ Summarizer = (*OpenAISummarizer)(nil)
