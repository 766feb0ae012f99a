package room

import (
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// mockConn - testify mock for Conn.
type mockConn struct {
	mock.Mock
}

func (that *mockConn) Send(payload []byte) error {
	args := that.Called(payload)
	return args.Error(0)
}

func (that *mockConn) Writable() bool {
	args := that.Called()
	return args.Bool(0)
}

// nopConn - always writable, discards everything.
type nopConn struct{}

func (nopConn) Send([]byte) error { return nil }
func (nopConn) Writable() bool    { return true }

// publishRecorder - collects states handed to Publish.
type publishRecorder struct {
	mu      sync.Mutex
	states  []entity.GameState
	members [][]Member
}

func (that *publishRecorder) publish(state entity.GameState, members []Member) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.states = append(that.states, state)
	that.members = append(that.members, members)
}

func (that *publishRecorder) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.states)
}

func (that *publishRecorder) last() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.states[len(that.states)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
