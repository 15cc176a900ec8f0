package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Publish(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestEncodeDecodeKeepsConcreteType(t *testing.T) {
	in := ThreadReplied{ActorID: uuid.New(), ThreadID: uuid.New(), ReplyID: uuid.New()}
	payload, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"thread_pinned","event":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestRedisSourcePublishesInOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sink := &collector{}
	require.NoError(t, NewRedisSource(rdb, ContentChannel, sink).Start(ctx))

	liked := ThreadLiked{ActorID: uuid.New(), ThreadID: uuid.New()}
	created := ThreadCreated{AuthorID: uuid.New(), ThreadID: uuid.New()}
	for _, e := range []Event{liked, created} {
		payload, err := Encode(e)
		require.NoError(t, err)
		require.NoError(t, rdb.Publish(ctx, ContentChannel, payload).Err())
	}
	require.NoError(t, rdb.Publish(ctx, ContentChannel, "garbage").Err())

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []Event{liked, created}, sink.snapshot())
}
