package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"anoa.com/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	userChannelPrefix = "realtime:user:"
	broadcastChannel  = "realtime:broadcast"
)

type relayEnvelope struct {
	Origin string          `json:"origin"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// RedisRelay fans pushes out to other instances over redis pub/sub. Each
// instance ignores the messages it published itself.
type RedisRelay struct {
	rdb      *redis.Client
	instance string
}

func NewRedisRelay(rdb *redis.Client) *RedisRelay {
	return &RedisRelay{rdb: rdb, instance: uuid.NewString()}
}

func (r *RedisRelay) Publish(ctx context.Context, userID uuid.UUID, msg Message) error {
	return r.publish(ctx, userChannelPrefix+userID.String(), msg)
}

func (r *RedisRelay) Broadcast(ctx context.Context, msg Message) error {
	return r.publish(ctx, broadcastChannel, msg)
}

func (r *RedisRelay) publish(ctx context.Context, channel string, msg Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(relayEnvelope{Origin: r.instance, Event: msg.Event, Data: data})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, channel, payload).Err()
}

// Start subscribes and delivers relayed messages through d until ctx is
// cancelled. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context, d *Dispatcher) error {
	pubsub := r.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe relay channels: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				r.handle(d, m)
			}
		}
	}()
	return nil
}

func (r *RedisRelay) handle(d *Dispatcher, m *redis.Message) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
		logger.Warn("invalid relay payload", zap.String("channel", m.Channel), zap.Error(err))
		return
	}
	if env.Origin == r.instance {
		return
	}
	msg := Message{Event: env.Event, Data: env.Data}

	if m.Channel == broadcastChannel {
		d.broadcastLocal(msg)
		return
	}

	userID, err := uuid.Parse(strings.TrimPrefix(m.Channel, userChannelPrefix))
	if err != nil {
		logger.Warn("invalid relay channel", zap.String("channel", m.Channel))
		return
	}
	d.DeliverLocal(userID, msg)
}
