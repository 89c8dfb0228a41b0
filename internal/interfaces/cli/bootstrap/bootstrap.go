// Package bootstrap holds the startup sequence shared by the CLI commands.
package bootstrap

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/coinpayable/internal/infrastructure/config"
	"github.com/orris-inc/coinpayable/internal/infrastructure/database"
	"github.com/orris-inc/coinpayable/internal/infrastructure/migration"
	httpRouter "github.com/orris-inc/coinpayable/internal/interfaces/http"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// Options are the flags every command accepts
type Options struct {
	Env         string
	ConfigPath  string
	AutoMigrate bool
}

// App is a fully wired process. Close releases it in reverse order.
type App struct {
	Config    *config.Config
	Log       logger.Interface
	Container *httpRouter.Container
}

// LoadConfig loads configuration and initializes the global logger
func LoadConfig(opts Options) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(opts.Env, opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.IsDebug()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// Start loads configuration, opens the database and builds the container
func Start(opts Options) (*App, error) {
	cfg, log, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}

	gin.SetMode(ginMode(cfg.Server.Mode))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if opts.AutoMigrate {
		manager := migration.NewManager(&cfg.Database, log.Named("migration"))
		log.Infow("running migrations on startup", "strategy", manager.GetStrategy().GetName())
		if err := manager.Migrate(database.Get()); err != nil {
			database.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	container, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &App{Config: cfg, Log: log, Container: container}, nil
}

func (a *App) Close() {
	a.Container.Shutdown()
	if err := database.Close(); err != nil {
		a.Log.Errorw("failed to close database", "error", err)
	}
	_ = logger.Sync()
}

func ginMode(mode string) string {
	switch mode {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
