package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type fakeChannel struct {
	id   string
	fail bool

	mu       sync.Mutex
	messages []Message
	closed   bool
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{id: uuid.NewString()}
}

func (f *fakeChannel) ID() string { return f.id }

func (f *fakeChannel) Send(msg Message) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChannel) received() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.messages))
	copy(out, f.messages)
	return out
}
