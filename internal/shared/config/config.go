package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"resume-ranker/internal/shared/telemetry"
)

// FreeLimit is the number of resumes an anonymous client may rank on the free tier.
const FreeLimit = 10

// Config holds application configuration.
type Config struct {
	Port             string   `validate:"required,numeric"`
	Env              string   `validate:"oneof=dev local staging production"`
	CORSAllowOrigin  []string `validate:"dive,url"`
	FreeLimit        int      `validate:"gte=0"`
	LedgerStore      string   `validate:"oneof=memory postgres redis"`
	DatabaseURL      string   `validate:"required_if=LedgerStore postgres"`
	RedisURL         string   `validate:"required_if=LedgerStore redis"`
	LLMProvider      string   `validate:"oneof=gemini openai none"`
	LLMModel         string
	GeminiAPIKey     string
	GeminiAPIKeyFile string
	OpenAIAPIKey     string
	AITimeout        time.Duration `validate:"gt=0"`
	RankConcurrency  int           `validate:"gte=1,lte=32"`
	MaxUploadBytes   int64         `validate:"gte=1024"`
	IndexFile        string
	LogLevel         string `validate:"oneof=trace debug info warn error"`
	LogFormat        string `validate:"oneof=json console"`
	CookieSecure     bool
	RateLimitRPS     float64  `validate:"gt=0"`
	RateLimitBurst   int      `validate:"gte=1"`
	TrustedProxies   []string `validate:"dive,ip|cidr"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	store := normalizeLedgerStore(getEnv("LEDGER_STORE", "memory"))
	dbURL := os.Getenv("DATABASE_URL")

	if store == "postgres" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"ledger_store": store})
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		FreeLimit:        getEnvInt("FREE_LIMIT", FreeLimit),
		LedgerStore:      store,
		DatabaseURL:      dbURL,
		RedisURL:         getEnv("REDIS_URL", ""),
		LLMProvider:      normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:         getEnv("LLM_MODEL", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiAPIKeyFile: getEnv("GEMINI_API_KEY_FILE", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		AITimeout:        getEnvDuration("AI_TIMEOUT", 20*time.Second),
		RankConcurrency:  getEnvInt("RANK_CONCURRENCY", 4),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
		IndexFile:        getEnv("INDEX_FILE", ""),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
		CookieSecure:     getEnvBool("COOKIE_SECURE", env == "production"),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 5),
		TrustedProxies:   splitAndTrim(getEnv("TRUSTED_PROXIES", "")),
	}
}

var validate = validator.New()

// Validate checks the loaded values and reports every offending field at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s %s", fe.Namespace(), describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a URL"
	case "numeric":
		return "must be numeric"
	case "gt", "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// IsDevLike reports whether env is a local development environment.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_bool", map[string]any{"key": key, "error": err.Error()})
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
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

// Unrecognised values are kept as given so Validate rejects them instead of
// silently picking a default.
func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev", "":
		return "dev"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeLedgerStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "redis":
		return "redis"
	case "memory", "":
		return "memory"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "placeholder":
		return "none"
	case "gemini", "":
		return "gemini"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
