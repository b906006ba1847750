package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/anomaly"
	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/forecast"
	"github.com/vaniusmax/projeto-finops/internal/insights"
	"github.com/vaniusmax/projeto-finops/internal/llm"
	"github.com/vaniusmax/projeto-finops/internal/llm/openai"
	"github.com/vaniusmax/projeto-finops/internal/shared/cache"
	"github.com/vaniusmax/projeto-finops/internal/shared/config"
	"github.com/vaniusmax/projeto-finops/internal/shared/server"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/db"
	"github.com/vaniusmax/projeto-finops/internal/shared/storage/object"
	localstore "github.com/vaniusmax/projeto-finops/internal/shared/storage/object/local"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Cache  *cache.Cache

	ImportsRepo     costs.ImportsRepo
	CostsService    *costs.Service
	LLM             llm.Client
	InsightsService *insights.Service

	ImportsHandler  *costs.Handler
	MetricsHandler  *analytics.Handler
	AnomalyHandler  *anomaly.Handler
	ForecastHandler *forecast.Handler
	InsightsHandler *insights.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  localstore.New(cfg.LocalStoreDir),
	}
	if cfg.CacheEnabled {
		app.Cache = cache.New(cfg.CacheTTL)
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   app.Config,
		Imports:  app.ImportsHandler,
		Metrics:  app.MetricsHandler,
		Anomaly:  app.AnomalyHandler,
		Forecast: app.ForecastHandler,
		Insights: app.InsightsHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.ImportsRepo = &costs.PGRepo{DB: app.DB}
	} else {
		app.ImportsRepo = costs.NewMemoryRepo()
	}
	app.CostsService = costs.NewService(app.ImportsRepo, app.Store)

	llmClient := llm.Client(llm.PlaceholderClient{})
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if app.Config.LLMProvider == "openai" && apiKey != "" {
		openaiClient, err := openai.NewClient(apiKey, app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}
	app.LLM = llmClient
	app.InsightsService = insights.NewService(llmClient, 30*time.Second)

	app.ImportsHandler = costs.NewHandler(app.CostsService)
	app.MetricsHandler = analytics.NewHandler(app.CostsService, app.Cache, app.Config.TopN)
	app.AnomalyHandler = anomaly.NewHandler(app.MetricsHandler, app.Config.AnomalySigma)
	app.ForecastHandler = forecast.NewHandler(app.MetricsHandler, app.Config.ForecastHorizon)
	app.InsightsHandler = insights.NewHandler(app.InsightsService, app.MetricsHandler)
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
