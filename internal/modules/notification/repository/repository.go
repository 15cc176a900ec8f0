package repository

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	userRepo "anoa.com/socialgraph/internal/modules/user/repository"
	"anoa.com/socialgraph/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errNotificationNotFound = apperror.NotFound("notification not found")

// NotificationRepository keeps notifications and the recipient's unread
// counter in step: every write that flips an unread row adjusts the counter
// in the same transaction and returns the new value.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
	GetByRecipient(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, int64, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts the notification and increments the recipient's unread
// counter, returning the new count.
func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) (int64, error) {
	var unread int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.LockUser(tx, notification.RecipientID); err != nil {
			return err
		}
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		var err error
		unread, err = userRepo.AdjustUnread(tx, notification.RecipientID, 1)
		return err
	})
	return unread, err
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	var notification entity.Notification
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("id = ?", id).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) GetByRecipient(ctx context.Context, userID uuid.UUID, offset, limit int) ([]entity.Notification, int64, error) {
	var (
		notifications []entity.Notification
		total         int64
	)

	query := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("recipient_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Sender").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkAsRead flips one unread notification owned by userID. It reports
// whether the row changed; the counter moves only when it did.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, int64, error) {
	var (
		changed bool
		unread  int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.LockUser(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&entity.Notification{}).
			Where("id = ? AND recipient_id = ? AND is_read = ?", id, userID, false).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}

		var err error
		if res.RowsAffected == 0 {
			unread, err = userRepo.UnreadCount(tx, userID)
			return err
		}
		changed = true
		unread, err = userRepo.AdjustUnread(tx, userID, -1)
		return err
	})
	return changed, unread, err
}

// MarkAllAsRead returns how many notifications changed. The counter is
// reset to zero; the user lock keeps a concurrent Create from landing
// between the update and the reset.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.LockUser(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&entity.Notification{}).
			Where("recipient_id = ? AND is_read = ?", userID, false).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected
		return userRepo.ResetUnread(tx, userID)
	})
	return updated, err
}

// Delete removes a notification owned by userID and returns the unread
// count afterwards. The counter only moves when the deleted row was still
// unread at delete time.
func (r *notificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	var unread int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRepo.LockUser(tx, userID); err != nil {
			return err
		}

		res := tx.Where("id = ? AND recipient_id = ? AND is_read = ?", id, userID, false).
			Delete(&entity.Notification{})
		if res.Error != nil {
			return res.Error
		}
		var err error
		if res.RowsAffected == 1 {
			unread, err = userRepo.AdjustUnread(tx, userID, -1)
			return err
		}

		res = tx.Where("id = ? AND recipient_id = ?", id, userID).Delete(&entity.Notification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotificationNotFound
		}
		unread, err = userRepo.UnreadCount(tx, userID)
		return err
	})
	return unread, err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return userRepo.UnreadCount(r.db.WithContext(ctx), userID)
}
