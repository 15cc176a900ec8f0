package dto

import "anoa.com/socialgraph/internal/entity"

type UpdatePreferenceInput struct {
	Type  entity.NotificationType `json:"type" binding:"required"`
	Email *bool                   `json:"email"`
	Push  *bool                   `json:"push"`
	InApp *bool                   `json:"in_app"`
}

type PreferencesResponse struct {
	Preferences map[entity.NotificationType]entity.ChannelPreference `json:"preferences"`
	// AlwaysOn types ignore the push and in-app toggles.
	AlwaysOn []entity.NotificationType `json:"always_on"`
}
