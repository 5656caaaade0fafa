//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iuridev/sge-messaging-api/internal/config"
	"github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/auth"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/feed"
	conversationrepo "github.com/iuridev/sge-messaging-api/internal/infrastructure/repository/conversation"
	directoryrepo "github.com/iuridev/sge-messaging-api/internal/infrastructure/repository/directory"
	"github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideDatabase,
	ProvideStore,
	ProvideDirectory,
	ProvideFeedListener,
	ProvideFeed,
	ProvideAuthValidator,

	// Domain providers
	messaging.NewRegistry,

	// Interface providers
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideDatabase provides the GORM connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
}

// ProvideStore provides the conversation store.
func ProvideStore(db *gorm.DB) messaging.Store {
	return conversationrepo.NewRepository(db)
}

// ProvideDirectory provides the profile directory.
func ProvideDirectory(db *gorm.DB) messaging.Directory {
	return directoryrepo.NewRepository(db)
}

// ProvideFeedListener provides the LISTEN/NOTIFY listener.
func ProvideFeedListener(cfg *config.Config, log zerolog.Logger) *feed.Listener {
	return feed.NewListener(feed.Config{
		DSN:          cfg.DatabaseURL,
		MinReconnect: cfg.FeedMinReconnect,
		MaxReconnect: cfg.FeedMaxReconnect,
		PingInterval: cfg.FeedPingInterval,
	}, log)
}

// ProvideFeed provides the listener as the messaging change feed.
func ProvideFeed(listener *feed.Listener) messaging.Feed {
	return listener
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
