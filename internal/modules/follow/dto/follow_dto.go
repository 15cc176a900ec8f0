package dto

import (
	"time"

	"anoa.com/socialgraph/internal/entity"
	userDto "anoa.com/socialgraph/internal/modules/user/dto"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/google/uuid"
)

type FollowResponse struct {
	ID          uuid.UUID           `json:"id"`
	FollowerID  uuid.UUID           `json:"follower_id"`
	FollowingID uuid.UUID           `json:"following_id"`
	Status      entity.FollowStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

func NewFollowResponse(f *entity.Follow) FollowResponse {
	return FollowResponse{
		ID:          f.ID,
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
}

// FollowEdgeResponse is one row of a follower/following/request list. User
// is the party on the other side of the edge from the viewer.
type FollowEdgeResponse struct {
	ID        uuid.UUID             `json:"id"`
	User      commonDto.UserCompact `json:"user"`
	Status    entity.FollowStatus   `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

type FollowListResponse struct {
	Data []FollowEdgeResponse     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

type FollowStatusResponse struct {
	IsFollowing    bool                 `json:"is_following"`
	Status         *entity.FollowStatus `json:"status"`
	CanViewProfile bool                 `json:"can_view_profile"`
}

func NewEdgeResponse(f entity.Follow, other *entity.User) FollowEdgeResponse {
	return FollowEdgeResponse{
		ID:        f.ID,
		User:      userDto.ToCompact(other),
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
	}
}
