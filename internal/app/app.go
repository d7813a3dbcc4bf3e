package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/db"
	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/scheduler"
	"github.com/virtuos/siddata-backend/internal/server"
	"github.com/virtuos/siddata-backend/internal/types"
	"github.com/virtuos/siddata-backend/internal/utils"
)

type App struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Router    *gin.Engine
	Cfg       Config
	Repos     Repos
	Services  Services
	Scheduler *scheduler.Scheduler
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, reposet, serviceset)
	authMiddleware := wireMiddleware(log, serviceset)
	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthHandler:        handlerset.Auth,
		AuthMiddleware:     authMiddleware,
		StudentHandler:     handlerset.Student,
		ActivityHandler:    handlerset.Activity,
		RecommenderHandler: handlerset.Recommender,
	})

	sched, err := scheduler.New(log, serviceset.Batch, scheduler.Config{
		CronSpec:            cfg.CronSpec,
		TemplateRefreshSpec: cfg.TemplateRefresh,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	a := &App{
		Log:       log,
		DB:        theDB,
		Router:    router,
		Cfg:       cfg,
		Repos:     reposet,
		Services:  serviceset,
		Scheduler: sched,
	}
	if err := a.seedOrigin(context.Background()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("seed origin: %w", err)
	}
	return a, nil
}

// Start refreshes templates once so the catalogue matches the deployed
// plugin code, then hands periodic work to the scheduler.
func (a *App) Start() {
	a.Services.Batch.RunInitializeTemplates(context.Background())
	a.Scheduler.Start()
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// seedOrigin registers the origin named in the environment, hashing its api
// key. Development convenience; production origins are provisioned out of
// band.
func (a *App) seedOrigin(ctx context.Context) error {
	endpoint := utils.GetEnv("SEED_ORIGIN_ENDPOINT", "", a.Log)
	apiKey := utils.GetEnv("SEED_ORIGIN_API_KEY", "", a.Log)
	if endpoint == "" || apiKey == "" {
		return nil
	}
	if _, err := a.Repos.Origin.GetByEndpoint(ctx, nil, endpoint); err == nil {
		return nil
	}
	hashed, err := a.Services.Auth.HashAPIKey(apiKey)
	if err != nil {
		return err
	}
	return a.Repos.Origin.Create(ctx, nil, &types.Origin{
		Name:     utils.GetEnv("SEED_ORIGIN_NAME", endpoint, a.Log),
		Endpoint: endpoint,
		APIKey:   hashed,
	})
}
