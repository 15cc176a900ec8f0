package realtime

import (
	"context"
	"errors"

	"anoa.com/socialgraph/pkg/apperror"
	"anoa.com/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Relay forwards pushes to other instances. See RedisRelay.
type Relay interface {
	Publish(ctx context.Context, userID uuid.UUID, msg Message) error
	Broadcast(ctx context.Context, msg Message) error
}

// Dispatcher pushes events to online users. It never returns delivery
// errors; they are logged and the durable state is unaffected.
type Dispatcher struct {
	registry *Registry
	relay    Relay
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// SetRelay enables cross-instance delivery for users not connected here.
func (d *Dispatcher) SetRelay(relay Relay) {
	d.relay = relay
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

func (d *Dispatcher) SendNotification(ctx context.Context, userID uuid.UUID, payload any) {
	d.push(ctx, userID, Message{Event: EventNewNotification, Data: payload})
}

func (d *Dispatcher) PushUnreadCount(ctx context.Context, userID uuid.UUID, count int64) {
	d.push(ctx, userID, Message{Event: EventUnreadCount, Data: UnreadCountData{Count: count}})
}

// BroadcastSystem sends message to every registered connection and returns
// how many local sends succeeded.
func (d *Dispatcher) BroadcastSystem(ctx context.Context, message string) int {
	msg := Message{Event: EventSystemNotification, Data: SystemData{Message: message}}
	delivered := d.broadcastLocal(msg)

	if d.relay != nil {
		if err := d.relay.Broadcast(ctx, msg); err != nil {
			logger.Warn("relay broadcast failed", zap.Error(errors.Join(apperror.ErrDeliveryFailure, err)))
		}
	}
	return delivered
}

func (d *Dispatcher) push(ctx context.Context, userID uuid.UUID, msg Message) {
	if d.DeliverLocal(userID, msg) {
		return
	}
	if d.relay == nil {
		return
	}
	if err := d.relay.Publish(ctx, userID, msg); err != nil {
		logger.Warn("relay publish failed",
			zap.String("user_id", userID.String()),
			zap.String("event", msg.Event),
			zap.Error(errors.Join(apperror.ErrDeliveryFailure, err)),
		)
	}
}

// DeliverLocal sends msg to userID's channel on this instance. It reports
// whether the user is connected here, regardless of send success.
func (d *Dispatcher) DeliverLocal(userID uuid.UUID, msg Message) bool {
	ch, ok := d.registry.Lookup(userID)
	if !ok {
		return false
	}
	if err := ch.Send(msg); err != nil {
		logger.Warn("realtime push failed",
			zap.String("user_id", userID.String()),
			zap.String("channel", ch.ID()),
			zap.String("event", msg.Event),
			zap.Error(errors.Join(apperror.ErrDeliveryFailure, err)),
		)
	}
	return true
}

func (d *Dispatcher) broadcastLocal(msg Message) int {
	delivered := 0
	for userID, ch := range d.registry.Snapshot() {
		if err := ch.Send(msg); err != nil {
			logger.Warn("broadcast push failed",
				zap.String("user_id", userID.String()),
				zap.String("channel", ch.ID()),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}
