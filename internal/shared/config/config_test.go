package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("FREE_LIMIT", "")
	t.Setenv("LEDGER_STORE", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("AI_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, FreeLimit, cfg.FreeLimit)
	assert.Equal(t, "memory", cfg.LedgerStore)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 20*time.Second, cfg.AITimeout)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.True(t, cfg.IsDevLike())
	assert.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("FREE_LIMIT", "25")
	t.Setenv("LEDGER_STORE", "PG")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("AI_TIMEOUT", "7")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 25, cfg.FreeLimit)
	assert.Equal(t, "postgres", cfg.LedgerStore)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 7*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.IsDevLike())
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("FREE_LIMIT", "lots")
	t.Setenv("AI_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, FreeLimit, cfg.FreeLimit)
	assert.Equal(t, 20*time.Second, cfg.AITimeout)
}

func TestLoadEnvFilesDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RANKER_TEST_A=from-file\nRANKER_TEST_B=\"quoted\"\n"), 0o600))
	t.Setenv("RANKER_TEST_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("RANKER_TEST_B") })

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-env", os.Getenv("RANKER_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("RANKER_TEST_B"))
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LEDGER_STORE", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")

	assert.NoError(t, Load().Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Load()
	cfg.Port = "http"
	cfg.LedgerStore = "postgres"
	cfg.DatabaseURL = ""
	cfg.RankConcurrency = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Config.Port must be numeric")
	assert.Contains(t, msg, "Config.DatabaseURL is required")
	assert.Contains(t, msg, "Config.RankConcurrency must be at least 1")
	assert.Contains(t, msg, "Config.LogFormat must be one of: json console")
}

func TestValidateRedisNeedsURL(t *testing.T) {
	cfg := Load()
	cfg.LedgerStore = "redis"
	cfg.RedisURL = ""
	assert.ErrorContains(t, cfg.Validate(), "Config.RedisURL is required")

	cfg.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())
}

func TestLoadKeepsUnknownValuesForValidate(t *testing.T) {
	t.Setenv("ENV", "prodution")
	t.Setenv("LEDGER_STORE", "postgress")
	t.Setenv("LLM_PROVIDER", "claude")

	cfg := Load()

	assert.Equal(t, "prodution", cfg.Env)
	assert.False(t, cfg.IsDevLike())
	msg := cfg.Validate().Error()
	assert.Contains(t, msg, "Config.Env must be one of")
	assert.Contains(t, msg, "Config.LedgerStore must be one of")
	assert.Contains(t, msg, "Config.LLMProvider must be one of")
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")
	cfg := Load()
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.TrustedProxies)

	cfg.TrustedProxies = []string{"not-a-proxy"}
	assert.ErrorContains(t, cfg.Validate(), "Config.TrustedProxies[0] is invalid")
}
