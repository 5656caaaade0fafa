package entities

import "time"

// Message is the persisted message row. IDs are ULIDs, so primary key order
// matches insert order within a conversation.
type Message struct {
	ID             string    `gorm:"type:char(26);primaryKey"`
	ConversationID string    `gorm:"type:varchar(40);not null;index"`
	SenderID       string    `gorm:"type:varchar(64);not null"`
	Content        string    `gorm:"type:text;not null"`
	IsRead         bool      `gorm:"not null;default:false;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
