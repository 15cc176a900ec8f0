package follow

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	userRepo "anoa.com/socialgraph/internal/modules/user/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists follow edges. Every mutation runs in one transaction
// together with the follower/following counter updates it implies.
type Repository interface {
	Find(ctx context.Context, followerID, followingID uuid.UUID) (*entity.Follow, error)
	Create(ctx context.Context, edge *entity.Follow) error
	Accept(ctx context.Context, followerID, followingID uuid.UUID) (*entity.Follow, error)
	Delete(ctx context.Context, followerID, followingID uuid.UUID, statuses ...entity.FollowStatus) (entity.FollowStatus, error)
	ListIncoming(ctx context.Context, followingID uuid.UUID, status entity.FollowStatus, offset, limit int) ([]entity.Follow, int64, error)
	ListOutgoing(ctx context.Context, followerID uuid.UUID, status entity.FollowStatus, offset, limit int) ([]entity.Follow, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Find returns gorm.ErrRecordNotFound when no edge exists.
func (r *repository) Find(ctx context.Context, followerID, followingID uuid.UUID) (*entity.Follow, error) {
	var edge entity.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&edge).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *repository) Create(ctx context.Context, edge *entity.Follow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(edge).Error; err != nil {
			return err
		}
		if edge.Status == entity.FollowStatusAccepted {
			return userRepo.AdjustFollowCounts(tx, edge.FollowerID, edge.FollowingID, 1)
		}
		return nil
	})
}

// Accept moves a pending edge to accepted. The status predicate in the
// UPDATE makes concurrent accepts count once.
func (r *repository) Accept(ctx context.Context, followerID, followingID uuid.UUID) (*entity.Follow, error) {
	var edge entity.Follow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Follow{}).
			Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, entity.FollowStatusPending).
			Update("status", entity.FollowStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := userRepo.AdjustFollowCounts(tx, followerID, followingID, 1); err != nil {
			return err
		}
		return tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&edge).Error
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Delete removes the edge if its status is one of statuses (any status when
// none are given) and reports which status was removed. Removing an
// accepted edge decrements both counters.
func (r *repository) Delete(ctx context.Context, followerID, followingID uuid.UUID, statuses ...entity.FollowStatus) (entity.FollowStatus, error) {
	if len(statuses) == 0 {
		statuses = []entity.FollowStatus{entity.FollowStatusAccepted, entity.FollowStatusPending}
	}

	var removed entity.FollowStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, status := range statuses {
			res := tx.Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, status).
				Delete(&entity.Follow{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			removed = status
			if status == entity.FollowStatusAccepted {
				return userRepo.AdjustFollowCounts(tx, followerID, followingID, -1)
			}
			return nil
		}
		return gorm.ErrRecordNotFound
	})
	return removed, err
}

// ListIncoming lists edges pointing at followingID, newest first, with the
// follower preloaded.
func (r *repository) ListIncoming(ctx context.Context, followingID uuid.UUID, status entity.FollowStatus, offset, limit int) ([]entity.Follow, int64, error) {
	return r.list(ctx, "following_id = ?", followingID, "Follower", status, offset, limit)
}

// ListOutgoing lists edges from followerID with the followed user preloaded.
func (r *repository) ListOutgoing(ctx context.Context, followerID uuid.UUID, status entity.FollowStatus, offset, limit int) ([]entity.Follow, int64, error) {
	return r.list(ctx, "follower_id = ?", followerID, "Following", status, offset, limit)
}

func (r *repository) list(ctx context.Context, cond string, id uuid.UUID, preload string, status entity.FollowStatus, offset, limit int) ([]entity.Follow, int64, error) {
	var (
		edges []entity.Follow
		total int64
	)

	query := r.db.WithContext(ctx).Model(&entity.Follow{}).
		Where(cond, id).
		Where("status = ?", status)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload(preload).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&edges).Error; err != nil {
		return nil, 0, err
	}
	return edges, total, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
