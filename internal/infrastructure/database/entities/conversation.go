package entities

import "time"

// Conversation is the persisted conversation row. Participants are stored in
// normalized order (participant_a < participant_b); the partial unique index
// idx_conversation_open_pair, created by AutoMigrate, enforces at most one
// open conversation per pair. The tag below only declares the plain lookup
// index.
type Conversation struct {
	ID           string    `gorm:"type:varchar(40);primaryKey"`
	Protocol     string    `gorm:"type:varchar(24);uniqueIndex;not null"`
	Status       string    `gorm:"type:varchar(16);not null;index"`
	ParticipantA string    `gorm:"type:varchar(64);not null;index:idx_conversation_pair"`
	ParticipantB string    `gorm:"type:varchar(64);not null;index:idx_conversation_pair"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}
