package preference

import (
	"context"
	"fmt"

	"anoa.com/socialgraph/internal/entity"
	prefDto "anoa.com/socialgraph/internal/modules/preference/dto"
	repo "anoa.com/socialgraph/internal/modules/preference/repository"
	"anoa.com/socialgraph/pkg/apperror"
	"github.com/google/uuid"
)

type Service interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*prefDto.PreferencesResponse, error)
	UpdatePreference(ctx context.Context, userID uuid.UUID, input prefDto.UpdatePreferenceInput) (entity.ChannelPreference, error)
}

type service struct {
	repo     repo.Repository
	alwaysOn []entity.NotificationType
}

func NewService(repo repo.Repository, alwaysOn []entity.NotificationType) Service {
	return &service{repo: repo, alwaysOn: alwaysOn}
}

func (s *service) GetPreferences(ctx context.Context, userID uuid.UUID) (*prefDto.PreferencesResponse, error) {
	prefs, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	alwaysOn := s.alwaysOn
	if alwaysOn == nil {
		alwaysOn = []entity.NotificationType{}
	}
	return &prefDto.PreferencesResponse{Preferences: prefs, AlwaysOn: alwaysOn}, nil
}

// UpdatePreference applies the flags present in input on top of the stored
// (or default) preference.
func (s *service) UpdatePreference(ctx context.Context, userID uuid.UUID, input prefDto.UpdatePreferenceInput) (entity.ChannelPreference, error) {
	if !input.Type.Valid() {
		return entity.ChannelPreference{}, fmt.Errorf("unknown notification type %q: %w", input.Type, apperror.ErrInvalidInput)
	}

	pref, err := s.repo.Get(ctx, userID, input.Type)
	if err != nil {
		return entity.ChannelPreference{}, err
	}
	if input.Email != nil {
		pref.Email = *input.Email
	}
	if input.Push != nil {
		pref.Push = *input.Push
	}
	if input.InApp != nil {
		pref.InApp = *input.InApp
	}

	if err := s.repo.Upsert(ctx, userID, input.Type, pref); err != nil {
		return entity.ChannelPreference{}, err
	}
	return pref, nil
}
