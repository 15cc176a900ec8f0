package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationFollowRequest  NotificationType = "follow_request"
	NotificationFollowAccepted NotificationType = "follow_accepted"
	NotificationNewFollower    NotificationType = "new_follower"
	NotificationThreadLike     NotificationType = "thread_like"
	NotificationReplyLike      NotificationType = "reply_like"
	NotificationThreadReply    NotificationType = "thread_reply"
	NotificationThreadRepost   NotificationType = "thread_repost"
	NotificationMention        NotificationType = "mention"
)

// NotificationTypes is the closed set of valid types.
var NotificationTypes = []NotificationType{
	NotificationFollowRequest,
	NotificationFollowAccepted,
	NotificationNewFollower,
	NotificationThreadLike,
	NotificationReplyLike,
	NotificationThreadReply,
	NotificationThreadRepost,
	NotificationMention,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_inbox,priority:1" json:"recipient_id"`
	SenderID    uuid.UUID        `gorm:"type:uuid;not null" json:"sender_id"`
	Type        NotificationType `gorm:"size:30;not null" json:"type"`
	ThreadID    *uuid.UUID       `gorm:"type:uuid" json:"thread_id,omitempty"`
	ReplyID     *uuid.UUID       `gorm:"type:uuid" json:"reply_id,omitempty"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notifications_inbox,priority:2" json:"is_read"`
	CreatedAt   time.Time        `gorm:"autoCreateTime;index:idx_notifications_inbox,priority:3" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
