package follow

import (
	"context"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	followDto "anoa.com/socialgraph/internal/modules/follow/dto"
	repo "anoa.com/socialgraph/internal/modules/follow/repository"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"anoa.com/socialgraph/pkg/ratelimiter"
	"github.com/google/uuid"
)

func (s *service) RequestFollow(ctx context.Context, followerID, targetID uuid.UUID) (*entity.Follow, error) {
	if followerID == targetID {
		return nil, ErrSelfFollow
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.existingEdgeConflict(ctx, followerID, targetID); err != nil {
		return nil, err
	}

	if err := ratelimiter.Enforce(ctx, s.redisClient, followerID.String(), "follow:"+targetID.String(), s.opts.Cooldown); err != nil {
		return nil, err
	}

	edge := &entity.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      entity.FollowStatusAccepted,
	}
	if target.IsPrivate {
		edge.Status = entity.FollowStatusPending
	}

	if err := s.followRepo.Create(ctx, edge); err != nil {
		// lost a race against a concurrent request for the same pair
		if conflict := s.existingEdgeConflict(ctx, followerID, targetID); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	if edge.Status == entity.FollowStatusPending {
		s.publish(ctx, event.FollowRequested{FollowerID: followerID, TargetID: targetID})
	} else {
		s.publish(ctx, event.NewFollower{FollowerID: followerID, TargetID: targetID})
	}
	return edge, nil
}

func (s *service) AcceptFollow(ctx context.Context, targetID, followerID uuid.UUID) (*entity.Follow, error) {
	edge, err := s.followRepo.Accept(ctx, followerID, targetID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, apperror.NotFound("follow request not found")
		}
		return nil, err
	}

	s.publish(ctx, event.FollowAccepted{FollowerID: followerID, TargetID: targetID})
	return edge, nil
}

// RejectFollow removes the edge whatever its status.
func (s *service) RejectFollow(ctx context.Context, targetID, followerID uuid.UUID) error {
	_, err := s.followRepo.Delete(ctx, followerID, targetID)
	return notFoundAs(err, "follow request not found")
}

func (s *service) CancelRequest(ctx context.Context, followerID, targetID uuid.UUID) error {
	_, err := s.followRepo.Delete(ctx, followerID, targetID, entity.FollowStatusPending)
	return notFoundAs(err, "no pending follow request for this user")
}

func (s *service) Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error {
	_, err := s.followRepo.Delete(ctx, followerID, targetID, entity.FollowStatusAccepted)
	return notFoundAs(err, "you are not following this user")
}

func (s *service) RemoveFollower(ctx context.Context, ownerID, followerID uuid.UUID) error {
	_, err := s.followRepo.Delete(ctx, followerID, ownerID, entity.FollowStatusAccepted)
	return notFoundAs(err, "this user is not following you")
}

func (s *service) ListPending(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error) {
	offset := page.Normalize()
	edges, total, err := s.followRepo.ListIncoming(ctx, userID, entity.FollowStatusPending, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return buildList(edges, total, page, func(f entity.Follow) *entity.User { return f.Follower }), nil
}

func (s *service) ListSent(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error) {
	offset := page.Normalize()
	edges, total, err := s.followRepo.ListOutgoing(ctx, userID, entity.FollowStatusPending, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return buildList(edges, total, page, func(f entity.Follow) *entity.User { return f.Following }), nil
}

func (s *service) ListFollowers(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	offset := page.Normalize()
	edges, total, err := s.followRepo.ListIncoming(ctx, userID, entity.FollowStatusAccepted, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return buildList(edges, total, page, func(f entity.Follow) *entity.User { return f.Follower }), nil
}

func (s *service) ListFollowing(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	offset := page.Normalize()
	edges, total, err := s.followRepo.ListOutgoing(ctx, userID, entity.FollowStatusAccepted, offset, page.Limit)
	if err != nil {
		return nil, err
	}
	return buildList(edges, total, page, func(f entity.Follow) *entity.User { return f.Following }), nil
}

// GetStatus reports IsFollowing for any existing edge; Status tells
// pending from accepted and is nil when there is none.
func (s *service) GetStatus(ctx context.Context, viewerID, targetID uuid.UUID) (*followDto.FollowStatusResponse, error) {
	edge, err := s.followRepo.Find(ctx, viewerID, targetID)
	if err != nil {
		if repo.IsNotFound(err) {
			return &followDto.FollowStatusResponse{}, nil
		}
		return nil, err
	}
	status := edge.Status
	return &followDto.FollowStatusResponse{IsFollowing: true, Status: &status}, nil
}

func (s *service) CanViewProfile(ctx context.Context, viewerID, targetID uuid.UUID) (bool, error) {
	if viewerID == targetID {
		return true, nil
	}
	private, err := s.userRepo.IsPrivate(ctx, targetID)
	if err != nil {
		return false, err
	}
	if !private {
		return true, nil
	}
	edge, err := s.followRepo.Find(ctx, viewerID, targetID)
	if err != nil {
		if repo.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return edge.Status == entity.FollowStatusAccepted, nil
}
