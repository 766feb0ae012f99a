package websocket

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/queue"
)

type client struct {
	conn  *websocket.Conn
	queue *queue.Queue
	conf  config.WebSocket
}

func newClient(conn *websocket.Conn, conf config.WebSocket) *client {
	return &client{
		conn:  conn,
		queue: queue.New(conf.SendBuffer),
		conf:  conf,
	}
}

// readPump - passes every text frame to onFrame until the peer goes away or misses a pong.
func (that *client) readPump(onFrame func([]byte)) error {
	if that.conf.ReadLimit > 0 {
		that.conn.SetReadLimit(that.conf.ReadLimit)
	}

	_ = that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	})

	for {
		kind, frame, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("failed to read message: %w", err)
			}
			return nil
		}

		_ = that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))

		if kind != websocket.TextMessage {
			continue
		}

		onFrame(frame)
	}
}

// writePump - drains the queue and pings the peer. Returns once the queue is closed.
func (that *client) writePump() error {
	ticker := time.NewTicker(that.conf.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-that.queue.Frames():
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = that.conn.Close()
				return fmt.Errorf("failed to write message: %w", err)
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = that.conn.Close()
				return fmt.Errorf("failed to write ping: %w", err)
			}
		}
	}
}
