package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is owned by the account service; this service reads it and maintains
// the denormalised counters.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username            string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	DisplayName         string    `gorm:"size:100" json:"display_name"`
	Email               string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	PasswordHash        string    `gorm:"size:255" json:"-"`
	Role                string    `gorm:"size:20;not null;default:user" json:"role"`
	AvatarURL           *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	IsPrivate           bool      `gorm:"not null;default:false" json:"is_private"`
	FollowersCount      int64     `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount      int64     `gorm:"not null;default:0" json:"following_count"`
	UnreadNotifications int64     `gorm:"not null;default:0" json:"unread_notifications"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Name is what other users see in messages.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
