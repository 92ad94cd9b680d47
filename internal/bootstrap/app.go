package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"smartcs-backend/internal/analyses"
	"smartcs-backend/internal/llm"
	"smartcs-backend/internal/llm/gemini"
	"smartcs-backend/internal/llm/openai"
	"smartcs-backend/internal/services/health"
	"smartcs-backend/internal/shared/config"
	"smartcs-backend/internal/shared/server"
	"smartcs-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	Gateway           llm.Gateway
	GatewayConfigured bool
	AnalysesService   *analyses.Service
	AnalysisHandler   *analyses.Handler
	Health            *health.Service
}

// Build wires configuration, the model gateway, services and routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	gateway, configured, err := BuildGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:            cfg,
		Gateway:           gateway,
		GatewayConfigured: configured,
		AnalysesService:   analyses.NewService(gateway, cfg.ParallelStages),
		Health:            health.NewService(cfg.LLMProvider, cfg.LLMModel, configured),
	}
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesService)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		Health:          app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":                cfg.Env,
		"provider":           cfg.LLMProvider,
		"model":              cfg.LLMModel,
		"gateway_configured": configured,
		"parallel_stages":    cfg.ParallelStages,
	})
	return app, nil
}

// BuildGateway constructs the instrumented gateway for the configured provider.
// A missing credential is not a startup error: the server still starts and
// analysis requests fail with llm.ErrNotConfigured.
func BuildGateway(ctx context.Context, cfg config.Config) (llm.Gateway, bool, error) {
	if strings.TrimSpace(cfg.APIKey()) == "" {
		telemetry.Warn("bootstrap.gateway_unconfigured", map[string]any{
			"provider": cfg.LLMProvider,
		})
		return llm.Instrument(llm.Unconfigured{Provider: cfg.LLMProvider}, cfg.LLMProvider, cfg.LLMModel), false, nil
	}

	var (
		base llm.Gateway
		err  error
	)
	switch cfg.LLMProvider {
	case "openai":
		base, err = openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	case "gemini":
		base, err = gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return nil, false, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, false, fmt.Errorf("build %s gateway: %w", cfg.LLMProvider, err)
	}
	return llm.Instrument(base, cfg.LLMProvider, cfg.LLMModel), true, nil
}
