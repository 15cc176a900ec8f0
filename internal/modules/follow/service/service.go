package follow

import (
	"context"
	"time"

	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/internal/event"
	followDto "anoa.com/socialgraph/internal/modules/follow/dto"
	repo "anoa.com/socialgraph/internal/modules/follow/repository"
	userRepo "anoa.com/socialgraph/internal/modules/user/repository"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSelfFollow       = apperror.InvalidOperation("you cannot follow yourself")
	ErrAlreadyFollowing = apperror.Conflict("already following this user")
	ErrRequestPending   = apperror.Conflict("follow request already pending")
)

type Service interface {
	RequestFollow(ctx context.Context, followerID, targetID uuid.UUID) (*entity.Follow, error)
	AcceptFollow(ctx context.Context, targetID, followerID uuid.UUID) (*entity.Follow, error)
	RejectFollow(ctx context.Context, targetID, followerID uuid.UUID) error
	CancelRequest(ctx context.Context, followerID, targetID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error
	RemoveFollower(ctx context.Context, ownerID, followerID uuid.UUID) error

	ListPending(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error)
	ListSent(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error)

	GetStatus(ctx context.Context, viewerID, targetID uuid.UUID) (*followDto.FollowStatusResponse, error)
	CanViewProfile(ctx context.Context, viewerID, targetID uuid.UUID) (bool, error)
}

type Options struct {
	// Cooldown between two follow requests for the same pair. Zero or a nil
	// redis client disables it.
	Cooldown time.Duration
}

type service struct {
	followRepo  repo.Repository
	userRepo    userRepo.UserRepository
	publisher   event.Publisher
	redisClient *redis.Client
	opts        Options
}

func NewService(followRepo repo.Repository, userRepo userRepo.UserRepository, publisher event.Publisher, redisClient *redis.Client, opts Options) Service {
	return &service{
		followRepo:  followRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		redisClient: redisClient,
		opts:        opts,
	}
}
