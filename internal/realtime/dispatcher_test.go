package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	published []uuid.UUID
	broadcast int
	err       error
}

func (r *recordingRelay) Publish(_ context.Context, userID uuid.UUID, _ Message) error {
	r.published = append(r.published, userID)
	return r.err
}

func (r *recordingRelay) Broadcast(context.Context, Message) error {
	r.broadcast++
	return r.err
}

func TestSendNotificationToOnlineUser(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	user := uuid.New()
	ch := newFakeChannel()
	reg.Register(user, ch)

	d.SendNotification(context.Background(), user, map[string]string{"type": "mention"})
	d.PushUnreadCount(context.Background(), user, 4)

	msgs := ch.received()
	require.Len(t, msgs, 2)
	assert.Equal(t, EventNewNotification, msgs[0].Event)
	assert.Equal(t, EventUnreadCount, msgs[1].Event)
	assert.Equal(t, UnreadCountData{Count: 4}, msgs[1].Data)
}

func TestSendToOfflineUserIsNoop(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	assert.NotPanics(t, func() {
		d.SendNotification(context.Background(), uuid.New(), nil)
		d.PushUnreadCount(context.Background(), uuid.New(), 1)
	})
}

func TestSendFailureIsSwallowed(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	user := uuid.New()
	ch := newFakeChannel()
	ch.fail = true
	reg.Register(user, ch)

	assert.NotPanics(t, func() {
		d.PushUnreadCount(context.Background(), user, 1)
	})
}

func TestBroadcastSkipsFailedChannels(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	good1, good2, bad := newFakeChannel(), newFakeChannel(), newFakeChannel()
	bad.fail = true
	reg.Register(uuid.New(), good1)
	reg.Register(uuid.New(), bad)
	reg.Register(uuid.New(), good2)

	delivered := d.BroadcastSystem(context.Background(), "maintenance at noon")

	assert.Equal(t, 2, delivered)
	for _, ch := range []*fakeChannel{good1, good2} {
		msgs := ch.received()
		require.Len(t, msgs, 1)
		assert.Equal(t, EventSystemNotification, msgs[0].Event)
		assert.Equal(t, SystemData{Message: "maintenance at noon"}, msgs[0].Data)
	}
}

func TestRelayUsedOnlyForRemoteUsers(t *testing.T) {
	reg := NewRegistry()
	d := NewDispatcher(reg)
	relay := &recordingRelay{}
	d.SetRelay(relay)

	local := uuid.New()
	reg.Register(local, newFakeChannel())
	remote := uuid.New()

	d.SendNotification(context.Background(), local, nil)
	d.SendNotification(context.Background(), remote, nil)
	d.BroadcastSystem(context.Background(), "hi")

	assert.Equal(t, []uuid.UUID{remote}, relay.published)
	assert.Equal(t, 1, relay.broadcast)
}

func TestRelayErrorsAreSwallowed(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	d.SetRelay(&recordingRelay{err: errors.New("redis down")})

	assert.NotPanics(t, func() {
		d.SendNotification(context.Background(), uuid.New(), nil)
		assert.Equal(t, 0, d.BroadcastSystem(context.Background(), "x"))
	})
}
