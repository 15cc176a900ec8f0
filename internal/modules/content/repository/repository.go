package content

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the read side of threads and replies that notifications
// need: authors, parent thread and text for mention scanning.
type Repository interface {
	FindThread(ctx context.Context, id uuid.UUID) (*entity.Thread, error)
	FindReply(ctx context.Context, id uuid.UUID) (*entity.Reply, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindThread(ctx context.Context, id uuid.UUID) (*entity.Thread, error) {
	var thread entity.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("thread not found")
		}
		return nil, err
	}
	return &thread, nil
}

func (r *repository) FindReply(ctx context.Context, id uuid.UUID) (*entity.Reply, error) {
	var reply entity.Reply
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reply).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("reply not found")
		}
		return nil, err
	}
	return &reply, nil
}
