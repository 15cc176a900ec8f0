package dto

import (
	"anoa.com/socialgraph/internal/entity"
	commonDto "anoa.com/socialgraph/pkg/dto"
)

// ToCompact maps a user to the public card embedded in list responses.
// A nil user yields the zero card.
func ToCompact(u *entity.User) commonDto.UserCompact {
	if u == nil {
		return commonDto.UserCompact{}
	}
	return commonDto.UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.Name(),
		AvatarURL:   u.AvatarURL,
		IsPrivate:   u.IsPrivate,
	}
}
