// Package event carries domain events from the services that produce them
// to the notification pipeline.
package event

import (
	"context"
	"sync"

	"anoa.com/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event interface {
	Name() string
}

// FollowRequested: FollowerID asked to follow the private account TargetID.
type FollowRequested struct {
	FollowerID uuid.UUID `json:"follower_id"`
	TargetID   uuid.UUID `json:"target_id"`
}

// FollowAccepted: TargetID accepted FollowerID's pending request.
type FollowAccepted struct {
	FollowerID uuid.UUID `json:"follower_id"`
	TargetID   uuid.UUID `json:"target_id"`
}

// NewFollower: FollowerID started following the public account TargetID.
type NewFollower struct {
	FollowerID uuid.UUID `json:"follower_id"`
	TargetID   uuid.UUID `json:"target_id"`
}

type ThreadLiked struct {
	ActorID  uuid.UUID `json:"actor_id"`
	ThreadID uuid.UUID `json:"thread_id"`
}

type ReplyLiked struct {
	ActorID uuid.UUID `json:"actor_id"`
	ReplyID uuid.UUID `json:"reply_id"`
}

type ThreadReplied struct {
	ActorID  uuid.UUID `json:"actor_id"`
	ThreadID uuid.UUID `json:"thread_id"`
	ReplyID  uuid.UUID `json:"reply_id"`
}

type ThreadReposted struct {
	ActorID  uuid.UUID `json:"actor_id"`
	ThreadID uuid.UUID `json:"thread_id"`
}

// ThreadCreated only produces mention notifications.
type ThreadCreated struct {
	AuthorID uuid.UUID `json:"author_id"`
	ThreadID uuid.UUID `json:"thread_id"`
}

func (FollowRequested) Name() string { return "follow_requested" }
func (FollowAccepted) Name() string  { return "follow_accepted" }
func (NewFollower) Name() string     { return "new_follower" }
func (ThreadLiked) Name() string     { return "thread_liked" }
func (ReplyLiked) Name() string      { return "reply_liked" }
func (ThreadReplied) Name() string   { return "thread_replied" }
func (ThreadReposted) Name() string  { return "thread_reposted" }
func (ThreadCreated) Name() string   { return "thread_created" }

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Handler interface {
	Handle(ctx context.Context, e Event) error
}

type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus delivers every published event to every subscriber, synchronously and
// in publish order. A failing subscriber is logged and does not stop the
// others or the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, e); err != nil {
			logger.Warn("event handler failed",
				zap.String("event", e.Name()),
				zap.Error(err),
			)
		}
	}
}

var _ Publisher = (*Bus)(nil)
