package service

import (
	"context"
	"sync"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	contentRepo "anoa.com/socialgraph/internal/modules/content/repository"
	notifDto "anoa.com/socialgraph/internal/modules/notification/dto"
	notifRepo "anoa.com/socialgraph/internal/modules/notification/repository"
	prefRepo "anoa.com/socialgraph/internal/modules/preference/repository"
	userRepo "anoa.com/socialgraph/internal/modules/user/repository"
	"anoa.com/socialgraph/pkg/mailer"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, input notifDto.CreateNotificationInput) (*entity.Notification, error)
	CreateMentionNotifications(ctx context.Context, content string, authorID, threadID uuid.UUID, replyID *uuid.UUID) (int, error)

	GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*notifDto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// Handle turns domain events into notifications.
	Handle(ctx context.Context, e event.Event) error
}

// Pusher is the live delivery side; realtime.Dispatcher implements it.
type Pusher interface {
	SendNotification(ctx context.Context, userID uuid.UUID, payload any)
	PushUnreadCount(ctx context.Context, userID uuid.UUID, count int64)
}

// EmailQueue accepts messages for asynchronous delivery.
type EmailQueue interface {
	Enqueue(msg mailer.Message) bool
}

type Options struct {
	// AlwaysOn types ignore the recipient's in-app and push toggles.
	AlwaysOn []entity.NotificationType
}

func DefaultAlwaysOn() []entity.NotificationType {
	return []entity.NotificationType{entity.NotificationFollowRequest, entity.NotificationFollowAccepted}
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	userRepo    userRepo.UserRepository
	prefRepo    prefRepo.Repository
	contentRepo contentRepo.Repository
	pusher      Pusher
	emails      EmailQueue
	sanitizer   *bluemonday.Policy
	alwaysOn    map[entity.NotificationType]bool

	countLocks [64]sync.Mutex
}

func NewNotificationService(
	repo notifRepo.NotificationRepository,
	userRepo userRepo.UserRepository,
	prefRepo prefRepo.Repository,
	contentRepo contentRepo.Repository,
	pusher Pusher,
	emails EmailQueue,
	opts Options,
) NotificationService {
	alwaysOn := make(map[entity.NotificationType]bool, len(opts.AlwaysOn))
	for _, t := range opts.AlwaysOn {
		alwaysOn[t] = true
	}
	return &notificationService{
		repo:        repo,
		userRepo:    userRepo,
		prefRepo:    prefRepo,
		contentRepo: contentRepo,
		pusher:      pusher,
		emails:      emails,
		sanitizer:   bluemonday.StrictPolicy(),
		alwaysOn:    alwaysOn,
	}
}
