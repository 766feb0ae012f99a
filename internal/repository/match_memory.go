package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// memoryMatch - process-local history used when redis is disabled.
type memoryMatch struct {
	mu     sync.RWMutex
	stats  entity.MatchStats
	recent []*entity.Match
	keep   int
}

func NewMemoryMatchRepository(keep int) MatchRepository {
	if keep <= 0 {
		keep = 1
	}

	return &memoryMatch{keep: keep}
}

func (that *memoryMatch) Save(_ context.Context, match *entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Games++
	switch outcomeField(match.Winner) {
	case fieldXWins:
		that.stats.XWins++
	case fieldOWins:
		that.stats.OWins++
	default:
		that.stats.Draws++
	}

	stored := *match
	that.recent = append([]*entity.Match{&stored}, that.recent...)
	if len(that.recent) > that.keep {
		that.recent = that.recent[:that.keep]
	}

	return nil
}

func (that *memoryMatch) Stats(_ context.Context) (*entity.MatchStats, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	stats := that.stats
	return &stats, nil
}

func (that *memoryMatch) Recent(_ context.Context, limit int) ([]*entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if limit > len(that.recent) {
		limit = len(that.recent)
	}
	if limit < 0 {
		limit = 0
	}

	out := make([]*entity.Match, limit)
	copy(out, that.recent[:limit])

	return out, nil
}
