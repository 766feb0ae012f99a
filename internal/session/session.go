package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
)

// Session - per-connection identity and room membership. Owned by the transport connection.
type Session struct {
	ID   string
	Conn room.Conn

	mu     sync.Mutex
	roomID string
	closed atomic.Bool
}

func New(conn room.Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		Conn: conn,
	}
}

// RoomID - the room joined last, possibly already torn down by the opponent.
func (that *Session) RoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomID
}

func (that *Session) setRoomID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.roomID = id
}

// takeRoomID - clears and returns the room reference.
func (that *Session) takeRoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := that.roomID
	that.roomID = ""

	return id
}

func (that *Session) member() room.Member {
	return room.Member{ID: that.ID, Conn: that.Conn}
}
