package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"anoa.com/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	DefaultSendBuffer = 64
)

// SocketChannel wraps a websocket connection. A single writer goroutine
// drains the send buffer, so messages reach the client in Send order.
type SocketChannel struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewSocketChannel(conn *websocket.Conn, bufferSize int) *SocketChannel {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	return &SocketChannel{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

func (s *SocketChannel) ID() string {
	return s.id
}

func (s *SocketChannel) Send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrChannelClosed
	default:
	}

	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return ErrChannelClosed
	default:
		return ErrChannelFull
	}
}

// Run serves the connection until the client goes away or Close is called.
func (s *SocketChannel) Run() {
	go s.writePump()
	s.readPump()
	s.Close()
}

func (s *SocketChannel) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

// Done is closed once the channel stops accepting messages.
func (s *SocketChannel) Done() <-chan struct{} {
	return s.done
}

// readPump only keeps the connection alive; clients do not send commands.
func (s *SocketChannel) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error", zap.String("channel", s.id), zap.Error(err))
			}
			return
		}
	}
}

func (s *SocketChannel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("websocket write failed", zap.String("channel", s.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
