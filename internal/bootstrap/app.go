package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"whchecker-backend/internal/analyses"
	"whchecker-backend/internal/analyzer"
	"whchecker-backend/internal/installations"
	"whchecker-backend/internal/llm"
	"whchecker-backend/internal/llm/gemini"
	openai "whchecker-backend/internal/llm/openai"
	"whchecker-backend/internal/queue"
	"whchecker-backend/internal/services/health"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/server"
	"whchecker-backend/internal/shared/storage/db"
	"whchecker-backend/internal/shared/telemetry"
	"whchecker-backend/internal/slack"
)

// App holds shared dependencies.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Analyzer      *analyzer.Analyzer
	Installations *installations.Store
	SlackAPI      slack.API
	Processor     *slack.Processor
	Queue         queue.Client

	localQueue *queue.LocalQueue
}

// Options adjust Build for tests and alternate binaries.
type Options struct {
	// SlackAPI replaces the HTTPS Web API client.
	SlackAPI slack.API
	// LLM replaces the provider chosen from configuration.
	LLM llm.Client
	// SkipLocalQueue leaves Queue nil when no SQS queue is configured.
	SkipLocalQueue bool
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	az, err := BuildAnalyzer(ctx, cfg, opts.LLM)
	if err != nil {
		return nil, err
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo installations.Repo = installations.NewMemoryRepo()
	if sqlDB != nil {
		repo = &installations.SQLRepo{DB: sqlDB, Dialect: dialect}
	}
	installs := installations.NewStore(repo, cfg.Slack.BotToken)

	api := opts.SlackAPI
	if api == nil {
		api = slack.NewClient(0)
	}

	app := &App{
		Config:        cfg,
		DB:            sqlDB,
		Analyzer:      az,
		Installations: installs,
		SlackAPI:      api,
		Processor:     slack.NewProcessor(az, installs, api),
	}

	if err := buildQueue(ctx, app, opts); err != nil {
		return nil, err
	}

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	deps := server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: analyses.NewHandler(az),
		Health:          health.NewService(pinger, az.GenerationEnabled()),
	}
	if strings.TrimSpace(cfg.Slack.SigningSecret) != "" && app.Queue != nil {
		deps.Slack.Events = slack.NewEventsHandler(app.Queue).Handle
		deps.Slack.Interactions = slack.NewInteractionsHandler(installs, api, cfg.Slack.InstallURL()).Handle
	} else {
		telemetry.Warn("bootstrap.slack_disabled", map[string]any{"reason": "SLACK_SIGNING_SECRET or queue not configured"})
	}
	if cfg.Slack.OAuthEnabled() {
		oauth := slack.NewOAuthHandler(cfg.Slack, installs, nil)
		deps.Slack.Install = oauth.Install
		deps.Slack.OAuthRedirect = oauth.Callback
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

// Close drains the in-process queue and closes the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.localQueue != nil {
		if err := a.localQueue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain queue: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BuildAnalyzer loads the catalog and the configured generator. A non-nil
// override replaces the generator chosen from cfg.
func BuildAnalyzer(ctx context.Context, cfg config.Config, override llm.Client) (*analyzer.Analyzer, error) {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	client := override
	if client == nil {
		client, err = BuildLLM(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	opts := []analyzer.Option{analyzer.WithNotification(cfg.NotificationGate)}
	if client != nil {
		opts = append(opts, analyzer.WithLLM(llm.WithRetry(client)))
	}
	return analyzer.New(catalog, opts...), nil
}

func loadCatalog(path string) (*analyzer.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return analyzer.DefaultCatalog()
	}
	catalog, err := analyzer.LoadCatalog(afero.NewOsFs(), path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return catalog, nil
}

// BuildLLM returns the configured generator, or nil when generation is
// unavailable. A missing credential disables generation instead of failing.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "reason": "OPENAI_API_KEY not set"})
			return nil, nil
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case llm.ProviderGemini:
		if strings.TrimSpace(cfg.GoogleAPIKey) == "" {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "reason": "GOOGLE_API_KEY not set"})
			return nil, nil
		}
		client, err := gemini.NewClient(ctx, cfg.GoogleAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	_, _, dialect, err := db.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, "", nil
		}
		return nil, "", err
	}

	// Production schemas are applied by cmd/migrate.
	if isDevLike(cfg.Env) || dialect == db.DialectSQLite {
		if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
			_ = sqlDB.Close()
			return nil, "", fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, dialect, nil
}

func buildQueue(ctx context.Context, app *App, opts Options) error {
	cfg := app.Config
	if strings.TrimSpace(cfg.SQSQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
		if err != nil {
			return err
		}
		app.Queue = client
		return nil
	}
	if opts.SkipLocalQueue {
		return nil
	}
	app.localQueue = queue.NewLocalQueue(ctx, app.Processor.Process, cfg.WorkerConcurrency, 0)
	app.Queue = app.localQueue
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
