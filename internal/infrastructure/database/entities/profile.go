package entities

import "time"

// Profile mirrors the identity collaborator's profile rows. This service
// only reads them; the schema is migrated here for development convenience.
type Profile struct {
	ID             string    `gorm:"type:varchar(64);primaryKey"`
	DisplayName    string    `gorm:"type:varchar(128);not null"`
	Role           string    `gorm:"type:varchar(16);not null;index"`
	Sector         string    `gorm:"type:varchar(64)"`
	OrganizationID string    `gorm:"type:varchar(64);index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
