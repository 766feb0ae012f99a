package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	statsKey  = "matches:stats"
	recentKey = "matches:recent"

	fieldGames = "games"
	fieldXWins = "x_wins"
	fieldOWins = "o_wins"
	fieldDraws = "draws"
)

type MatchRepository interface {
	Save(ctx context.Context, match *entity.Match) error
	Stats(ctx context.Context) (*entity.MatchStats, error)
	Recent(ctx context.Context, limit int) ([]*entity.Match, error)
}

type dbMatch struct {
	client *redis.Client

	keep int64
	ttl  time.Duration
}

// NewMatchRepository - keeps the last `keep` matches; ttl of zero disables expiry of the history.
func NewMatchRepository(client *redis.Client, keep int, ttl time.Duration) MatchRepository {
	if keep <= 0 {
		keep = 1
	}

	return &dbMatch{
		client: client,
		keep:   int64(keep),
		ttl:    ttl,
	}
}

func (that *dbMatch) Save(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, recentKey, matchJSON)
		pipe.LTrim(ctx, recentKey, 0, that.keep-1)
		pipe.HIncrBy(ctx, statsKey, fieldGames, 1)
		pipe.HIncrBy(ctx, statsKey, outcomeField(match.Winner), 1)

		if that.ttl > 0 {
			pipe.Expire(ctx, recentKey, that.ttl)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

func (that *dbMatch) Stats(ctx context.Context) (*entity.MatchStats, error) {
	fields, err := that.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return &entity.MatchStats{}, fmt.Errorf("failed to get match stats: %w", err)
	}

	stats := &entity.MatchStats{}
	for name, dst := range map[string]*int64{
		fieldGames: &stats.Games,
		fieldXWins: &stats.XWins,
		fieldOWins: &stats.OWins,
		fieldDraws: &stats.Draws,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}

		if *dst, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return &entity.MatchStats{}, fmt.Errorf("failed to parse %s counter: %w", name, err)
		}
	}

	return stats, nil
}

func (that *dbMatch) Recent(ctx context.Context, limit int) ([]*entity.Match, error) {
	if limit <= 0 {
		return []*entity.Match{}, nil
	}

	response, err := that.client.LRange(ctx, recentKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}

	matches := make([]*entity.Match, 0, len(response))
	for _, raw := range response {
		var match entity.Match
		if err = json.Unmarshal([]byte(raw), &match); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match: %w", err)
		}
		matches = append(matches, &match)
	}

	return matches, nil
}

func outcomeField(winner string) string {
	switch winner {
	case string(entity.PlayerX):
		return fieldXWins
	case string(entity.PlayerO):
		return fieldOWins
	default:
		return fieldDraws
	}
}
