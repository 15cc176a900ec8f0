package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/mention"
	notifDto "anoa.com/socialgraph/internal/modules/notification/dto"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"anoa.com/socialgraph/pkg/logger"
	"anoa.com/socialgraph/pkg/mailer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateNotification materialises one notification. It returns nil without
// error when the notification is suppressed: self-notification, or the
// recipient turned the in-app channel off for the type.
func (s *notificationService) CreateNotification(ctx context.Context, input notifDto.CreateNotificationInput) (*entity.Notification, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q: %w", input.Type, apperror.ErrInvalidInput)
	}
	if input.RecipientID == input.SenderID {
		return nil, nil
	}

	pref, err := s.preferenceFor(ctx, input.RecipientID, input.Type)
	if err != nil {
		return nil, err
	}
	if !pref.InApp {
		logger.Debug("notification suppressed by preference",
			zap.String("user_id", input.RecipientID.String()),
			zap.String("type", string(input.Type)),
		)
		return nil, nil
	}

	recipient, err := s.userRepo.FindByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	sender, err := s.userRepo.FindByID(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}

	notification := &entity.Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		ThreadID:    input.ThreadID,
		ReplyID:     input.ReplyID,
	}
	if _, err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	notification.Sender = sender

	// Everything below is best effort; the notification is already durable.
	if pref.Push && s.pusher != nil {
		s.pusher.SendNotification(ctx, recipient.ID, notifDto.NewNotificationResponse(notification))
		s.pushCount(ctx, recipient.ID)
	}
	if pref.Email {
		s.enqueueEmail(recipient, sender, input)
	}

	return notification, nil
}

// CreateMentionNotifications notifies every existing user mentioned in
// content except the author, once each. It returns how many notifications
// were created; failures for one recipient do not stop the others.
func (s *notificationService) CreateMentionNotifications(ctx context.Context, content string, authorID, threadID uuid.UUID, replyID *uuid.UUID) (int, error) {
	plain := s.plainText(content)
	handles := mention.Detect(plain)
	if len(handles) == 0 {
		return 0, nil
	}

	users, err := s.userRepo.FindByUsernames(ctx, handles)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]entity.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}

	var (
		created int
		errs    []error
	)
	for _, handle := range handles {
		u, ok := byName[handle]
		if !ok || u.ID == authorID {
			continue
		}

		tid := threadID
		n, err := s.CreateNotification(ctx, notifDto.CreateNotificationInput{
			RecipientID: u.ID,
			SenderID:    authorID,
			Type:        entity.NotificationMention,
			ThreadID:    &tid,
			ReplyID:     replyID,
			Excerpt:     excerpt(plain),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("mention @%s: %w", handle, err))
			continue
		}
		if n != nil {
			created++
		}
	}
	return created, errors.Join(errs...)
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*notifDto.NotificationListResponse, error) {
	offset := page.Normalize()
	notifications, total, err := s.repo.GetByRecipient(ctx, userID, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := make([]notifDto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, notifDto.NewNotificationResponse(&notifications[i]))
	}

	return &notifDto.NotificationListResponse{
		Data:        data,
		Meta:        commonDto.NewPaginationMeta(page.Page, page.Limit, total),
		UnreadCount: unread,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkAsRead is idempotent; only the unread to read transition moves the
// counter.
func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}

	changed, _, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if changed {
		s.pushCount(ctx, userID)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushCount(ctx, userID)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.pushCount(ctx, userID)
	return nil
}

func (s *notificationService) checkOwner(ctx context.Context, id, userID uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return apperror.Forbidden("you can only manage your own notifications")
	}
	return nil
}

func (s *notificationService) preferenceFor(ctx context.Context, userID uuid.UUID, t entity.NotificationType) (entity.ChannelPreference, error) {
	pref, err := s.prefRepo.Get(ctx, userID, t)
	if err != nil {
		return entity.ChannelPreference{}, err
	}
	if s.alwaysOn[t] {
		pref.InApp = true
		pref.Push = true
	}
	return pref, nil
}

// pushCount sends the user's committed counter. Read and push run under a
// per-user lock, so the last count a client sees is never older than the
// last committed write.
func (s *notificationService) pushCount(ctx context.Context, userID uuid.UUID) {
	if s.pusher == nil {
		return
	}

	mu := &s.countLocks[int(userID[15])%len(s.countLocks)]
	mu.Lock()
	defer mu.Unlock()

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		logger.Warn("unread count push skipped",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	s.pusher.PushUnreadCount(ctx, userID, count)
}

func (s *notificationService) enqueueEmail(recipient, sender *entity.User, input notifDto.CreateNotificationInput) {
	if s.emails == nil || recipient.Email == "" {
		return
	}

	content := BuildEmailMessage(input.Type, sender.Name(), input.Excerpt)
	ok := s.emails.Enqueue(mailer.Message{
		To:      recipient.Email,
		Subject: content.Subject,
		Text:    content.Message,
	})
	if !ok {
		logger.Warn("notification email dropped",
			zap.String("user_id", recipient.ID.String()),
			zap.String("type", string(input.Type)),
			zap.Error(apperror.ErrDeliveryFailure),
		)
	}
}
