package title

import "strings"

type Options struct {
	Provider string
	OpenAI   OpenAIOptions
	Gemini   GeminiOptions
}

// New picks the summarizer for the configured provider. Unknown names get the
// static fallback.
func New(opts Options) Summarizer {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case openAIProviderName, "":
		return NewOpenAISummarizer(opts.OpenAI)
	case geminiProviderName:
		return NewGeminiSummarizer(opts.Gemini)
	default:
		return NewStaticSummarizer()
	}
}
