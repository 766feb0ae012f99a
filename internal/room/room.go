package room

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const maxMembers = 2

// Conn - outbound side of a member connection. Send must only enqueue.
type Conn interface {
	Send(payload []byte) error
	Writable() bool
}

type Member struct {
	ID     string
	Symbol entity.Symbol
	Conn   Conn
}

// Publish - receives every new state while the room is still locked.
type Publish func(state entity.GameState, members []Member)

type Room struct {
	id string

	mu      sync.Mutex
	state   entity.GameState
	members []Member
	closed  bool
}

func newRoom(id string) *Room {
	return &Room{
		id:    id,
		state: entity.NewGameState(),
	}
}

func (that *Room) ID() string {
	return that.id
}

// AddCreator - seats the first member as X.
func (that *Room) AddCreator(identity string, conn Conn, publish Publish) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrRoomClosed
	}

	if len(that.members) != 0 {
		return apperror.ErrRoomNotEmpty
	}

	that.seat(identity, entity.PlayerX, conn)
	that.publish(publish)

	return nil
}

// AddJoiner - seats the second member with the remaining mark.
func (that *Room) AddJoiner(identity string, conn Conn, publish Publish) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	// a room without its creator is either torn down or not ready yet
	if that.closed || len(that.members) == 0 {
		return apperror.ErrRoomNotFound
	}

	if that.indexOf(identity) >= 0 {
		return apperror.ErrAlreadyInRoom
	}

	if len(that.members) >= maxMembers {
		return apperror.ErrRoomFull
	}

	that.seat(identity, that.members[0].Symbol.Opponent(), conn)
	that.publish(publish)

	return nil
}

// ApplyMove - plays the member's mark into the cell. Rejected moves leave the state untouched.
func (that *Room) ApplyMove(identity string, index int, publish Publish) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrRoomClosed
	}

	i := that.indexOf(identity)
	if i < 0 {
		if that.state.IsFinished() {
			return apperror.ErrGameFinished
		}
		return fmt.Errorf("%w: %w", apperror.ErrNotYourTurn, apperror.ErrNotInRoom)
	}

	if err := tictactoe.MakeTurn(&that.state, that.members[i].Symbol, index); err != nil {
		return fmt.Errorf("failed to apply move: %w", err)
	}

	that.publish(publish)

	return nil
}

// Reset - swaps the marks of both members and starts a fresh board with X to move.
func (that *Room) Reset(identity string, publish Publish) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrRoomClosed
	}

	if that.indexOf(identity) < 0 {
		return apperror.ErrNotInRoom
	}

	if len(that.members) != maxMembers {
		return apperror.ErrNotEnoughPlayers
	}

	that.members[0].Symbol, that.members[1].Symbol = that.members[1].Symbol, that.members[0].Symbol

	that.state = entity.NewGameState()
	for _, member := range that.members {
		that.state.Players[member.ID] = member.Symbol
	}

	that.publish(publish)

	return nil
}

// RemoveMember - tears the room down and returns whoever is left to notify.
// Only the first call by a member succeeds; strangers leave the room untouched.
func (that *Room) RemoveMember(identity string) ([]Member, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil, apperror.ErrRoomClosed
	}

	if that.indexOf(identity) < 0 {
		return nil, apperror.ErrNotInRoom
	}

	that.closed = true

	remaining := make([]Member, 0, len(that.members))
	for _, member := range that.members {
		if member.ID != identity {
			remaining = append(remaining, member)
		}
	}

	that.members = nil
	that.state.Players = make(map[string]entity.Symbol)

	return remaining, nil
}

// Snapshot - deep copy of the current state.
func (that *Room) Snapshot() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

func (that *Room) Members() []Member {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.copyMembers()
}

func (that *Room) MemberCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.members)
}

// IsMember - false once the room is torn down.
func (that *Room) IsMember(identity string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return !that.closed && that.indexOf(identity) >= 0
}

func (that *Room) seat(identity string, symbol entity.Symbol, conn Conn) {
	that.members = append(that.members, Member{ID: identity, Symbol: symbol, Conn: conn})
	that.state.Players[identity] = symbol
}

func (that *Room) publish(publish Publish) {
	if publish == nil {
		return
	}
	publish(that.state.Clone(), that.copyMembers())
}

func (that *Room) indexOf(identity string) int {
	for i, member := range that.members {
		if member.ID == identity {
			return i
		}
	}
	return -1
}

func (that *Room) copyMembers() []Member {
	out := make([]Member, len(that.members))
	copy(out, that.members)
	return out
}
