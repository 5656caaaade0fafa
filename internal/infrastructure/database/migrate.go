package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database/entities"
)

// openPairIndexSQL enforces at most one open conversation per participant
// pair. GORM tags cannot express a partial unique index, so it is created as
// raw DDL after AutoMigrate.
const openPairIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_open_pair ` +
	`ON conversations (participant_a, participant_b) WHERE status = 'open'`

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.Profile{},
		&entities.Conversation{},
		&entities.Message{},
	); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(openPairIndexSQL).Error; err != nil {
		return err
	}
	log.Info().Msg("applied messaging migrations")
	return nil
}
