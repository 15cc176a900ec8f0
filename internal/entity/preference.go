package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPreference holds per-type channel flags. A missing row means
// DefaultPreference.
type NotificationPreference struct {
	UserID    uuid.UUID        `gorm:"type:uuid;primaryKey" json:"user_id"`
	Type      NotificationType `gorm:"size:30;primaryKey" json:"type"`
	Email     bool             `gorm:"not null" json:"email"`
	Push      bool             `gorm:"not null" json:"push"`
	InApp     bool             `gorm:"not null" json:"in_app"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

type ChannelPreference struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"in_app"`
}

func DefaultPreference() ChannelPreference {
	return ChannelPreference{Email: false, Push: true, InApp: true}
}
