package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowStatus string

const (
	FollowStatusPending  FollowStatus = "pending"
	FollowStatusAccepted FollowStatus = "accepted"
)

// Follow is a directed edge follower -> following. At most one row exists
// per ordered pair.
type Follow struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:1;index:idx_follows_follower_status,priority:1" json:"follower_id"`
	FollowingID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:2;index:idx_follows_following_status,priority:1" json:"following_id"`
	Status      FollowStatus `gorm:"size:20;not null;index:idx_follows_follower_status,priority:2;index:idx_follows_following_status,priority:2" json:"status"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Follower  *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower,omitempty"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"following,omitempty"`
}

func (Follow) TableName() string { return "follows" }

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
