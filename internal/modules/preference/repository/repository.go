package preference

import (
	"context"
	"errors"

	"anoa.com/socialgraph/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and stores per-type delivery preferences. Types without
// a stored row resolve to entity.DefaultPreference.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID, t entity.NotificationType) (entity.ChannelPreference, error)
	GetAll(ctx context.Context, userID uuid.UUID) (map[entity.NotificationType]entity.ChannelPreference, error)
	Upsert(ctx context.Context, userID uuid.UUID, t entity.NotificationType, pref entity.ChannelPreference) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID, t entity.NotificationType) (entity.ChannelPreference, error) {
	var row entity.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, t).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DefaultPreference(), nil
	}
	if err != nil {
		return entity.ChannelPreference{}, err
	}
	return entity.ChannelPreference{Email: row.Email, Push: row.Push, InApp: row.InApp}, nil
}

func (r *repository) GetAll(ctx context.Context, userID uuid.UUID) (map[entity.NotificationType]entity.ChannelPreference, error) {
	var rows []entity.NotificationPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	prefs := make(map[entity.NotificationType]entity.ChannelPreference, len(entity.NotificationTypes))
	for _, t := range entity.NotificationTypes {
		prefs[t] = entity.DefaultPreference()
	}
	for _, row := range rows {
		prefs[row.Type] = entity.ChannelPreference{Email: row.Email, Push: row.Push, InApp: row.InApp}
	}
	return prefs, nil
}

func (r *repository) Upsert(ctx context.Context, userID uuid.UUID, t entity.NotificationType, pref entity.ChannelPreference) error {
	row := entity.NotificationPreference{
		UserID: userID,
		Type:   t,
		Email:  pref.Email,
		Push:   pref.Push,
		InApp:  pref.InApp,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "push", "in_app", "updated_at"}),
	}).Create(&row).Error
}
