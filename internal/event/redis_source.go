package event

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/socialgraph/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ContentChannel carries events published by the content service.
const ContentChannel = "events:content"

// Envelope is the wire form of an event: the event name and its JSON body.
type Envelope struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

var decoders = map[string]func() Event{
	FollowRequested{}.Name(): func() Event { return &FollowRequested{} },
	FollowAccepted{}.Name():  func() Event { return &FollowAccepted{} },
	NewFollower{}.Name():     func() Event { return &NewFollower{} },
	ThreadLiked{}.Name():     func() Event { return &ThreadLiked{} },
	ReplyLiked{}.Name():      func() Event { return &ReplyLiked{} },
	ThreadReplied{}.Name():   func() Event { return &ThreadReplied{} },
	ThreadReposted{}.Name():  func() Event { return &ThreadReposted{} },
	ThreadCreated{}.Name():   func() Event { return &ThreadCreated{} },
}

func Encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Name(), Event: body})
}

// Decode parses an envelope into the concrete event value.
func Decode(payload []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	newEvent, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	ptr := newEvent()
	if err := json.Unmarshal(env.Event, ptr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}

	switch e := ptr.(type) {
	case *FollowRequested:
		return *e, nil
	case *FollowAccepted:
		return *e, nil
	case *NewFollower:
		return *e, nil
	case *ThreadLiked:
		return *e, nil
	case *ReplyLiked:
		return *e, nil
	case *ThreadReplied:
		return *e, nil
	case *ThreadReposted:
		return *e, nil
	case *ThreadCreated:
		return *e, nil
	}
	return nil, fmt.Errorf("unhandled event type %q", env.Type)
}

// RedisSource feeds events published on a redis channel into a Publisher.
// Messages are handled one at a time in arrival order.
type RedisSource struct {
	rdb       *redis.Client
	channel   string
	publisher Publisher
}

func NewRedisSource(rdb *redis.Client, channel string, publisher Publisher) *RedisSource {
	return &RedisSource{rdb: rdb, channel: channel, publisher: publisher}
}

// Start subscribes and returns once the subscription is confirmed. The
// consume loop stops when ctx is cancelled.
func (s *RedisSource) Start(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				e, err := Decode([]byte(msg.Payload))
				if err != nil {
					logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				s.publisher.Publish(ctx, e)
			}
		}
	}()
	return nil
}
