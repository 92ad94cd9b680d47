package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	GeminiAPIKey    string
	LLMTimeout      time.Duration
	ParallelStages  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience; missing files are fine.
	loadEnvFiles(".env", "cmd/.env")

	provider := NormalizeProvider(getEnv("LLM_PROVIDER", "openai"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		LLMProvider:     provider,
		LLMModel:        getEnv("LLM_MODEL", DefaultModel(provider)),
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:   strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LLMTimeout:      time.Duration(getInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		ParallelStages:  getBool("ANALYSIS_PARALLEL", false),
	}
}

// APIKey returns the credential for the configured provider.
func (c Config) APIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Load never overrides variables already present in the environment.
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// NormalizeProvider maps a provider name or alias to "openai" or "gemini".
func NormalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	default:
		return "openai"
	}
}

// DefaultModel returns the model used for provider when LLM_MODEL is unset.
func DefaultModel(provider string) string {
	if provider == "gemini" {
		return defaultGeminiModel
	}
	return defaultOpenAIModel
}
