package room

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxCodeAttempts = 100
)

var ErrCodeSpaceExhausted = fmt.Errorf("could not generate a unique room code after %d attempts", maxCodeAttempts)

// CodeGenerator - produces candidate room codes.
type CodeGenerator func() (string, error)

type Option func(*Registry)

// WithCodeGenerator - replaces the random room code source.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(r *Registry) {
		r.generate = gen
	}
}

type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	rooms    map[string]*Room
	generate CodeGenerator
}

func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	registry := &Registry{
		logger:   logger.With("component", "registry"),
		rooms:    make(map[string]*Room),
		generate: GenerateCode,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// CreateRoom - registers an empty room under a code no live room uses.
func (that *Registry) CreateRoom() (*Room, error) {
	log := that.logger.With("method", "CreateRoom")

	that.mu.Lock()
	defer that.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := that.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, exists := that.rooms[code]; exists {
			log.Debug("room code collision", "room_id", code)
			continue
		}

		room := newRoom(code)
		that.rooms[code] = room

		log.Debug("room created", "room_id", code, "rooms", len(that.rooms))

		return room, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func (that *Registry) GetRoom(id string) (*Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// RemoveRoom - reports whether this call removed the entry.
func (that *Registry) RemoveRoom(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[id]; !ok {
		return false
	}

	delete(that.rooms, id)
	that.logger.Debug("room removed", "room_id", id, "rooms", len(that.rooms))

	return true
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// GenerateCode - six uppercase letters or digits from crypto/rand.
func GenerateCode() (string, error) {
	limit := big.NewInt(int64(len(codeAlphabet)))

	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}
