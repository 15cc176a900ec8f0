package service

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	notifDto "anoa.com/socialgraph/internal/modules/notification/dto"
)

func (s *notificationService) Handle(ctx context.Context, e event.Event) error {
	switch ev := e.(type) {
	case event.FollowRequested:
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: ev.TargetID,
			SenderID:    ev.FollowerID,
			Type:        entity.NotificationFollowRequest,
		})

	case event.FollowAccepted:
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: ev.FollowerID,
			SenderID:    ev.TargetID,
			Type:        entity.NotificationFollowAccepted,
		})

	case event.NewFollower:
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: ev.TargetID,
			SenderID:    ev.FollowerID,
			Type:        entity.NotificationNewFollower,
		})

	case event.ThreadLiked:
		thread, err := s.contentRepo.FindThread(ctx, ev.ThreadID)
		if err != nil {
			return err
		}
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: thread.UserID,
			SenderID:    ev.ActorID,
			Type:        entity.NotificationThreadLike,
			ThreadID:    &thread.ID,
		})

	case event.ReplyLiked:
		reply, err := s.contentRepo.FindReply(ctx, ev.ReplyID)
		if err != nil {
			return err
		}
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: reply.UserID,
			SenderID:    ev.ActorID,
			Type:        entity.NotificationReplyLike,
			ThreadID:    &reply.ThreadID,
			ReplyID:     &reply.ID,
		})

	case event.ThreadReposted:
		thread, err := s.contentRepo.FindThread(ctx, ev.ThreadID)
		if err != nil {
			return err
		}
		return s.notify(ctx, notifDto.CreateNotificationInput{
			RecipientID: thread.UserID,
			SenderID:    ev.ActorID,
			Type:        entity.NotificationThreadRepost,
			ThreadID:    &thread.ID,
		})

	case event.ThreadReplied:
		return s.handleReply(ctx, ev)

	case event.ThreadCreated:
		thread, err := s.contentRepo.FindThread(ctx, ev.ThreadID)
		if err != nil {
			return err
		}
		_, err = s.CreateMentionNotifications(ctx, thread.Content, ev.AuthorID, thread.ID, nil)
		return err
	}
	return nil
}

// handleReply notifies the thread author and everyone mentioned in the
// reply. A mentioned thread author receives both notifications.
func (s *notificationService) handleReply(ctx context.Context, ev event.ThreadReplied) error {
	thread, err := s.contentRepo.FindThread(ctx, ev.ThreadID)
	if err != nil {
		return err
	}
	reply, err := s.contentRepo.FindReply(ctx, ev.ReplyID)
	if err != nil {
		return err
	}

	replyErr := s.notify(ctx, notifDto.CreateNotificationInput{
		RecipientID: thread.UserID,
		SenderID:    ev.ActorID,
		Type:        entity.NotificationThreadReply,
		ThreadID:    &thread.ID,
		ReplyID:     &reply.ID,
		Excerpt:     excerpt(s.plainText(reply.Content)),
	})
	_, mentionErr := s.CreateMentionNotifications(ctx, reply.Content, ev.ActorID, thread.ID, &reply.ID)
	return errors.Join(replyErr, mentionErr)
}

func (s *notificationService) notify(ctx context.Context, input notifDto.CreateNotificationInput) error {
	_, err := s.CreateNotification(ctx, input)
	return err
}
