package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	DatabaseMaxConns int
	JWTSecret        string

	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	OpenAIOrg             string
	OpenAIReasoningEffort string
	GenerationOutputField string

	TitleProvider string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	WorkerPollInterval time.Duration
	WorkerBatchSize    int
	WorkerMaxAttempts  int
	WorkerCallTimeout  time.Duration
	WorkerWakeOnNotify bool

	StoragePath    string
	StorageBaseURL string
	GeoIPDBPath    string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	PromptEventsLimit  int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: getEnvInt("DATABASE_MAX_CONNS", 10),
		JWTSecret:        os.Getenv("JWT_SECRET"),

		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-5-mini"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:             os.Getenv("OPENAI_ORG"),
		OpenAIReasoningEffort: getEnv("OPENAI_REASONING_EFFORT", "low"),
		GenerationOutputField: getEnv("GENERATION_OUTPUT_FIELD", "code"),

		TitleProvider: strings.ToLower(getEnv("TITLE_PROVIDER", "openai")),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 5)),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 2),
		WorkerMaxAttempts:  getEnvInt("WORKER_MAX_ATTEMPTS", 0),
		WorkerCallTimeout:  time.Second * time.Duration(getEnvInt("WORKER_CALL_TIMEOUT_SECONDS", 0)),
		WorkerWakeOnNotify: getEnvBool("WORKER_WAKE_ON_NOTIFY", true),

		StoragePath:    os.Getenv("STORAGE_PATH"),
		StorageBaseURL: strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		PromptEventsLimit:  getEnvInt("PROMPT_EVENTS_LIMIT", 5),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DatabaseMaxConns <= 0 {
		cfg.DatabaseMaxConns = 10
	}
	if cfg.WorkerPollInterval <= 0 {
		cfg.WorkerPollInterval = 5 * time.Second
	}
	if cfg.WorkerBatchSize <= 0 {
		cfg.WorkerBatchSize = 2
	}
	if cfg.WorkerCallTimeout < 0 {
		cfg.WorkerCallTimeout = 0
	}
	if cfg.PromptEventsLimit <= 0 {
		cfg.PromptEventsLimit = 5
	}

	return cfg, nil
}

// RequireAPI checks the settings only the HTTP process needs.
func (c *Config) RequireAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
