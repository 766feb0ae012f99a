package queue

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// Queue - bounded outbound frame buffer for one connection.
// Send never blocks; a full buffer drops the frame.
type Queue struct {
	mu     sync.RWMutex
	ch     chan []byte
	closed bool
}

func New(size int) *Queue {
	if size <= 0 {
		size = 1
	}

	return &Queue{ch: make(chan []byte, size)}
}

func (that *Queue) Send(payload []byte) error {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		return apperror.ErrConnClosed
	}

	select {
	case that.ch <- payload:
		return nil
	default:
		return apperror.ErrBackpressure
	}
}

func (that *Queue) Writable() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return !that.closed
}

// Frames - drained by the connection writer; closed by Close.
func (that *Queue) Frames() <-chan []byte {
	return that.ch
}

// Close - safe to call more than once.
func (that *Queue) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.ch)
}
