package title

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Placeholder      = "Untitled component"
	maxFallbackRunes = 48
	maxTitleWords    = 5
	maxTitleRunes    = 80

	staticProviderName = "static"
	openAIProviderName = "openai"
	geminiProviderName = "gemini"
)

// Summarizer produces a short display title for a prompt. It never fails.
type Summarizer interface {
	TitleFor(ctx context.Context, promptText string) string
}

// KeyFunc resolves a provider credential at call time.
type KeyFunc func(ctx context.Context) (string, error)

// Fallback is the deterministic title used whenever no provider answers.
func Fallback(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Placeholder
	}
	if utf8.RuneCountInString(trimmed) <= maxFallbackRunes {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:maxFallbackRunes-1]) + "…"
}

type StaticSummarizer struct{}

func NewStaticSummarizer() *StaticSummarizer {
	return &StaticSummarizer{}
}

func (StaticSummarizer) TitleFor(_ context.Context, promptText string) string {
	return Fallback(promptText)
}

// cleanTitle turns a model answer into a title-cased phrase of at most five
// words. It returns "" when nothing usable is left.
func cleanTitle(raw string) string {
	text := strings.TrimSpace(raw)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimPrefix(text, "Title:")
	text = strings.Trim(text, " \t\"'`*“”‘’")
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title := cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = strings.TrimSpace(string([]rune(title)[:maxTitleRunes]))
	}
	return title
}

func titlePrompt(promptText string) string {
	return "Summarize this UI component request as a title of 4 to 5 words. " +
		"Answer with the title only, no quotes and no trailing punctuation.\n\nRequest: " + promptText
}

type fallbackHook func(reason string, err error)

func (h fallbackHook) emit(reason string, err error) {
	if h != nil {
		h(reason, err)
	}
}
