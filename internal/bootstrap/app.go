package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/llm"
	"resume-ranker/internal/llm/gemini"
	"resume-ranker/internal/llm/openai"
	"resume-ranker/internal/ranking"
	"resume-ranker/internal/services/health"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/secrets"
	"resume-ranker/internal/shared/server"
	"resume-ranker/internal/shared/storage/db"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/usage"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Ledger         usage.Ledger
	LLM            llm.Client
	UsageService   *usage.Service
	RankingService *ranking.Service
	RankingHandler *ranking.Handler
	UsageHandler   *usage.Handler
	Health         *health.Service

	closers []func() error
}

// Build prepares dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	ledger, err := app.buildLedger(ctx)
	if err != nil {
		return nil, err
	}
	app.Ledger = ledger

	client, err := BuildLLM(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.LLM = client

	app.UsageService = usage.NewServiceWithLedger(ledger, cfg.FreeLimit)
	app.RankingService = ranking.NewService(client, app.UsageService, cfg.AITimeout, cfg.RankConcurrency)

	var lister llm.ModelLister
	if l, ok := client.(llm.ModelLister); ok {
		lister = l
	}
	app.RankingHandler = ranking.NewHandler(app.RankingService, lister, cfg.MaxUploadBytes, cfg.IndexFile)
	app.UsageHandler = usage.NewHandler(app.UsageService)
	app.Health = health.NewService(map[string]health.Check{
		"ledger": app.UsageService.Ping,
	})

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		RankingHandler: app.RankingHandler,
		UsageHandler:   app.UsageHandler,
		Health:         app.Health,
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildLedger picks the usage store. Dev-like environments fall back to memory
// when the configured backend cannot be reached.
func (a *App) buildLedger(ctx context.Context) (usage.Ledger, error) {
	cfg := a.Config
	var (
		ledger usage.Ledger
		err    error
	)
	switch cfg.LedgerStore {
	case "postgres":
		ledger, err = a.buildPGLedger(ctx)
	case "redis":
		var rl *usage.RedisLedger
		rl, err = usage.NewRedisLedger(ctx, cfg.RedisURL)
		if err == nil {
			a.closers = append(a.closers, rl.Close)
			ledger = rl
		}
	default:
		telemetry.Info("bootstrap.ledger", map[string]any{"store": "memory"})
		return usage.NewMemoryLedger(), nil
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.ledger_fallback", map[string]any{
				"store": cfg.LedgerStore,
				"error": err.Error(),
			})
			return usage.NewMemoryLedger(), nil
		}
		return nil, fmt.Errorf("ledger %s: %w", cfg.LedgerStore, err)
	}
	telemetry.Info("bootstrap.ledger", map[string]any{"store": cfg.LedgerStore})
	return ledger, nil
}

func (a *App) buildPGLedger(ctx context.Context) (usage.Ledger, error) {
	conn, err := db.Connect(ctx, a.Config.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.DB = conn
	a.closers = append(a.closers, conn.Close)
	return usage.NewPGLedger(conn), nil
}

// BuildLLM returns the configured AI client wrapped with a single retry.
// A missing API key yields the placeholder client so every resume gets
// default scores instead of failing the request.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		key, err := secrets.Load(secrets.Source{Name: "OPENAI_API_KEY", Value: cfg.OpenAIAPIKey})
		if err != nil {
			return placeholder(cfg, err)
		}
		client, err := openai.NewClient(key, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		telemetry.Info("bootstrap.llm", map[string]any{"provider": "openai", "model": client.Model()})
		return llm.WithRetry(client), nil
	case "gemini":
		key, err := secrets.Load(secrets.Source{
			Name:  "GEMINI_API_KEY",
			Value: cfg.GeminiAPIKey,
			File:  cfg.GeminiAPIKeyFile,
		})
		if err != nil {
			return placeholder(cfg, err)
		}
		client, err := gemini.New(ctx, key, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		telemetry.Info("bootstrap.llm", map[string]any{"provider": "gemini", "model": client.Model(ctx)})
		return llm.WithRetry(client), nil
	default:
		return placeholder(cfg, secrets.ErrNotConfigured)
	}
}

func placeholder(cfg config.Config, err error) (llm.Client, error) {
	if !errors.Is(err, secrets.ErrNotConfigured) {
		return nil, err
	}
	telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
		"provider": cfg.LLMProvider,
		"reason":   err.Error(),
	})
	return llm.PlaceholderClient{}, nil
}
