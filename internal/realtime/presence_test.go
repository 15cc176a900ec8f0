package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Count())
	assert.False(t, r.IsOnline(uuid.New()))
}

func TestRegistryNewestConnectionWins(t *testing.T) {
	r := NewRegistry()
	user := uuid.New()
	first, second := newFakeChannel(), newFakeChannel()

	assert.Nil(t, r.Register(user, first))
	prev := r.Register(user, second)
	assert.Equal(t, first, prev)

	ch, ok := r.Lookup(user)
	require.True(t, ok)
	assert.Equal(t, second, ch)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryStaleDisconnectKeepsNewerSession(t *testing.T) {
	r := NewRegistry()
	user := uuid.New()
	old, current := newFakeChannel(), newFakeChannel()

	r.Apply(Connected{UserID: user, Channel: old})
	r.Apply(Connected{UserID: user, Channel: current})
	r.Apply(Disconnected{UserID: user, Channel: old})

	ch, ok := r.Lookup(user)
	require.True(t, ok)
	assert.Equal(t, current, ch)

	r.Apply(Disconnected{UserID: user, Channel: current})
	assert.False(t, r.IsOnline(user))
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	r.Register(a, newFakeChannel())
	r.Register(b, newFakeChannel())

	r.Unregister(a)
	r.Unregister(uuid.New())
	r.Apply(Disconnected{UserID: b})
	r.Apply("unknown")

	assert.Equal(t, 0, r.Count())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			ch := newFakeChannel()
			r.Apply(Connected{UserID: id, Channel: ch})
			_ = r.IsOnline(id)
			_ = r.Snapshot()
			r.Apply(Disconnected{UserID: id, Channel: ch})
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Count())
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	r.Register(uuid.New(), newFakeChannel())
	r.Reset()
	assert.Equal(t, 0, r.Count())
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	a, b := newFakeChannel(), newFakeChannel()
	r.Register(uuid.New(), a)
	r.Register(uuid.New(), b)

	assert.Equal(t, 2, r.CloseAll())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Equal(t, 0, r.Count())
}
