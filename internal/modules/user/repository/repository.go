package repository

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]entity.User, error)
	IsPrivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsernames returns the users matching the exact (case-sensitive)
// usernames. Unknown names are simply absent from the result.
func (r *userRepository) FindByUsernames(ctx context.Context, usernames []string) ([]entity.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var users []entity.User
	err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users).Error
	return users, err
}

func (r *userRepository) IsPrivate(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsPrivate, nil
}

// AdjustFollowCounts applies delta to follower.following_count and
// following.followers_count with single-statement updates. It must run on
// the transaction that mutates the follow edge.
func AdjustFollowCounts(tx *gorm.DB, followerID, followingID uuid.UUID, delta int) error {
	if err := tx.Model(&entity.User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&entity.User{}).
		Where("id = ?", followingID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error
}

// AdjustUnread applies delta to the user's unread counter, never going
// below zero, and returns the new value. Must run inside a transaction.
func AdjustUnread(tx *gorm.DB, userID uuid.UUID, delta int) (int64, error) {
	q := tx.Model(&entity.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where("unread_notifications >= ?", -delta)
	}
	if err := q.UpdateColumn("unread_notifications", gorm.Expr("unread_notifications + ?", delta)).Error; err != nil {
		return 0, err
	}
	return UnreadCount(tx, userID)
}

// LockUser takes a row lock on the user for the rest of tx. Every writer of
// the unread counter takes it first, so they run one at a time per user.
// SQLite has no row locks and ignores the clause; it serialises writers anyway.
func LockUser(tx *gorm.DB, userID uuid.UUID) error {
	var user entity.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Find(&user).Error
}

// ResetUnread sets the counter to zero.
func ResetUnread(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("unread_notifications", 0).Error
}

func UnreadCount(db *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&entity.User{}).
		Where("id = ?", userID).
		Select("unread_notifications").
		Scan(&count).Error
	return count, err
}
