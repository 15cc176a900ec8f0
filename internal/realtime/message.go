package realtime

import (
	"errors"
)

// Event names are part of the client wire contract.
const (
	EventNewNotification    = "new_notification"
	EventUnreadCount        = "unread_count"
	EventSystemNotification = "system_notification"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel send buffer full")
)

// Message is the envelope written to clients: {"event": ..., "data": ...}.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type UnreadCountData struct {
	Count int64 `json:"count"`
}

type SystemData struct {
	Message string `json:"message"`
}

// Channel is a handle to one live client connection. Send must not block.
type Channel interface {
	ID() string
	Send(msg Message) error
}
