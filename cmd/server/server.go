package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iuridev/sge-messaging-api/internal/config"
	"github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/auth"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/feed"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/logger"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/observability"
	conversationrepo "github.com/iuridev/sge-messaging-api/internal/infrastructure/repository/conversation"
	directoryrepo "github.com/iuridev/sge-messaging-api/internal/infrastructure/repository/directory"
	"github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	listener   *feed.Listener
	registry   *messaging.Registry
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(
	httpServer *httpserver.HTTPServer,
	listener *feed.Listener,
	registry *messaging.Registry,
	log zerolog.Logger,
) *Application {
	return &Application{
		httpServer: httpServer,
		listener:   listener,
		registry:   registry,
		log:        log,
	}
}

// Start runs the application.
func (a *Application) Start(ctx context.Context) error {
	if err := a.listener.Start(); err != nil {
		return fmt.Errorf("start feed listener: %w", err)
	}

	// Run HTTP server (blocks until context cancelled)
	err := a.httpServer.Run(ctx)

	a.registry.StopAll()
	a.listener.Stop()

	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth validator")
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := conversationrepo.NewRepository(db)
	directory := directoryrepo.NewRepository(db)

	listener := feed.NewListener(feed.Config{
		DSN:          cfg.DatabaseURL,
		MinReconnect: cfg.FeedMinReconnect,
		MaxReconnect: cfg.FeedMaxReconnect,
		PingInterval: cfg.FeedPingInterval,
	}, log)

	registry := messaging.NewRegistry(store, directory, listener, log)

	httpServer := httpserver.New(cfg, log, registry, authValidator)

	app := NewApplication(httpServer, listener, registry, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
