package dto

import (
	"time"

	"anoa.com/socialgraph/internal/entity"
	userDto "anoa.com/socialgraph/internal/modules/user/dto"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/google/uuid"
)

// CreateNotificationInput describes one notification to materialise.
// Excerpt is optional context for the email body.
type CreateNotificationInput struct {
	RecipientID uuid.UUID
	SenderID    uuid.UUID
	Type        entity.NotificationType
	ThreadID    *uuid.UUID
	ReplyID     *uuid.UUID
	Excerpt     string
}

type NotificationResponse struct {
	ID        uuid.UUID               `json:"id"`
	Type      entity.NotificationType `json:"type"`
	Sender    commonDto.UserCompact   `json:"sender"`
	ThreadID  *uuid.UUID              `json:"thread_id,omitempty"`
	ReplyID   *uuid.UUID              `json:"reply_id,omitempty"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

func NewNotificationResponse(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Sender:    userDto.ToCompact(n.Sender),
		ThreadID:  n.ThreadID,
		ReplyID:   n.ReplyID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type NotificationListResponse struct {
	Data        []NotificationResponse   `json:"data"`
	Meta        commonDto.PaginationMeta `json:"meta"`
	UnreadCount int64                    `json:"unread_count"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// EmailContent is the rendered subject and body for one notification type.
type EmailContent struct {
	Subject string
	Message string
}
