package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []Message
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) snapshot() (int, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]Message(nil), s.sent...)
}

func TestQueueRetriesAndDrainsOnStop(t *testing.T) {
	sender := &recordingSender{failures: 2}
	q := NewQueue(sender, QueueOptions{Workers: 1, MaxAttempts: 3, RetryDelay: time.Millisecond})

	require.True(t, q.Enqueue(Message{To: "bob@example.com", Subject: "hi"}))
	stop := q.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, sent, 1)
	assert.Equal(t, "bob@example.com", sent[0].To)
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &recordingSender{failures: 10}
	q := NewQueue(sender, QueueOptions{Workers: 1, MaxAttempts: 2, RetryDelay: time.Millisecond})
	stop := q.Start()

	q.Enqueue(Message{To: "bob@example.com"})

	require.NoError(t, stop(context.Background()))
	calls, sent := sender.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, sent)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(&recordingSender{}, QueueOptions{Size: 1})

	assert.True(t, q.Enqueue(Message{To: "a@example.com"}))
	assert.False(t, q.Enqueue(Message{To: "b@example.com"}))
	assert.Equal(t, 1, q.QueueLen())
}
