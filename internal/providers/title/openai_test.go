package title

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func staticKey(key string) KeyFunc {
	return func(context.Context) (string, error) { return key, nil }
}

func TestOpenAISummarizerTitle(t *testing.T) {
	var req openAIChatRequest
	s := NewOpenAISummarizer(OpenAIOptions{
		Key: staticKey("sk-test"),
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			body := `{"choices":[{"message":{"content":"\"notification center dropdown.\""}}]}`
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
		})},
	})

	got := s.TitleFor(context.Background(), "Build a notifications center")
	if got != "Notification Center Dropdown" {
		t.Fatalf("TitleFor = %q", got)
	}
	if !strings.Contains(req.Messages[1].Content, "Build a notifications center") {
		t.Fatalf("prompt text not sent: %q", req.Messages[1].Content)
	}
}

func TestOpenAISummarizerFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		rt     roundTripFunc
		reason string
	}{
		{name: "missing key", key: "", reason: "missing_api_key"},
		{
			name: "transport",
			key:  "sk",
			rt: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("boom")
			},
			reason: "http_request",
		},
		{
			name: "status",
			key:  "sk",
			rt: func(*http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader("{}"))}, nil
			},
			reason: "http_401",
		},
		{
			name: "blank answer",
			key:  "sk",
			rt: func(*http.Request) (*http.Response, error) {
				body := `{"choices":[{"message":{"content":"  "}}]}`
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
			},
			reason: "empty_response",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured string
			client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return nil, errors.New("unexpected call")
			})}
			if tc.rt != nil {
				client = &http.Client{Transport: tc.rt}
			}
			s := NewOpenAISummarizer(OpenAIOptions{
				Key:        staticKey(tc.key),
				HTTPClient: client,
				OnFallback: func(reason string, err error) { captured = reason },
			})
			got := s.TitleFor(context.Background(), "Pricing table")
			if got != "Pricing table" {
				t.Fatalf("TitleFor = %q, want fallback", got)
			}
			if captured != tc.reason {
				t.Fatalf("reason = %q, want %q", captured, tc.reason)
			}
		})
	}
}
