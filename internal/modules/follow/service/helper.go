package follow

import (
	"context"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	followDto "anoa.com/socialgraph/internal/modules/follow/dto"
	repo "anoa.com/socialgraph/internal/modules/follow/repository"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/google/uuid"
)

// existingEdgeConflict returns the Conflict matching an existing edge, nil
// when the pair is free.
func (s *service) existingEdgeConflict(ctx context.Context, followerID, targetID uuid.UUID) error {
	existing, err := s.followRepo.Find(ctx, followerID, targetID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.Status == entity.FollowStatusPending {
		return ErrRequestPending
	}
	return ErrAlreadyFollowing
}

// publish runs after the graph change committed, so the notification work
// it triggers must survive the caller going away.
func (s *service) publish(ctx context.Context, e event.Event) {
	if s.publisher != nil {
		s.publisher.Publish(context.WithoutCancel(ctx), e)
	}
}

func notFoundAs(err error, message string) error {
	if err == nil {
		return nil
	}
	if repo.IsNotFound(err) {
		return apperror.NotFound(message)
	}
	return err
}

func buildList(edges []entity.Follow, total int64, page commonDto.PageQuery, other func(entity.Follow) *entity.User) *followDto.FollowListResponse {
	data := make([]followDto.FollowEdgeResponse, 0, len(edges))
	for _, f := range edges {
		data = append(data, followDto.NewEdgeResponse(f, other(f)))
	}
	return &followDto.FollowListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page.Page, page.Limit, total),
	}
}
