package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func newMatch(roomID, winner string) *entity.Match {
	line := []int{}
	if winner != entity.Draw {
		line = []int{0, 1, 2}
	}

	return &entity.Match{
		RoomID:      roomID,
		Players:     map[string]entity.Symbol{"a": entity.PlayerX, "b": entity.PlayerO},
		Winner:      winner,
		WinningLine: line,
		FinishedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestMatchRepository_Save(t *testing.T) {
	t.Run("Save_UpdatesCounters", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, 10, time.Hour)

		// Given: one match of each outcome plus an extra X win
		for _, winner := range []string{"X", "O", entity.Draw, "X"} {
			require.NoError(t, matchRepo.Save(ctx, newMatch("ROOM01", winner)))
		}

		// When: Stats is called
		stats, err := matchRepo.Stats(ctx)

		// Then: each counter matches
		require.NoError(t, err)
		assert.Equal(t, &entity.MatchStats{Games: 4, XWins: 2, OWins: 1, Draws: 1}, stats)

		ttl, err := st.Storage.TTL(ctx, recentKey).Result()
		require.NoError(t, err)
		assert.True(t, ttl > 0, "history should expire")
	})

	t.Run("Save_TrimsHistory", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, 2, 0)

		// Given: three saved matches
		for _, roomID := range []string{"ROOM01", "ROOM02", "ROOM03"} {
			require.NoError(t, matchRepo.Save(ctx, newMatch(roomID, "O")))
		}

		// When: Recent is called with a larger limit
		recent, err := matchRepo.Recent(ctx, 10)

		// Then: only the newest two remain, newest first
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "ROOM03", recent[0].RoomID)
		assert.Equal(t, "ROOM02", recent[1].RoomID)
		assert.Equal(t, entity.PlayerX, recent[0].Players["a"])
		assert.Equal(t, []int{0, 1, 2}, recent[0].WinningLine)
	})
}

func TestMatchRepository_Stats(t *testing.T) {
	t.Run("Stats_Empty", func(t *testing.T) {
		ctx, st := suite.New(t)

		matchRepo := NewMatchRepository(st.Storage, 10, 0)

		// When: Stats is called before any match
		stats, err := matchRepo.Stats(ctx)

		// Then: all counters are zero
		require.NoError(t, err)
		assert.Equal(t, &entity.MatchStats{}, stats)

		recent, err := matchRepo.Recent(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestMemoryMatchRepository(t *testing.T) {
	t.Run("Counts outcomes and caps history", func(t *testing.T) {
		ctx := context.Background()
		matchRepo := NewMemoryMatchRepository(2)

		// Given: three matches
		require.NoError(t, matchRepo.Save(ctx, newMatch("ROOM01", "X")))
		require.NoError(t, matchRepo.Save(ctx, newMatch("ROOM02", entity.Draw)))
		require.NoError(t, matchRepo.Save(ctx, newMatch("ROOM03", "O")))

		// When: reading back
		stats, err := matchRepo.Stats(ctx)
		require.NoError(t, err)
		recent, err := matchRepo.Recent(ctx, 5)
		require.NoError(t, err)

		// Then: counters see everything, history keeps the newest two
		assert.Equal(t, &entity.MatchStats{Games: 3, XWins: 1, OWins: 1, Draws: 1}, stats)
		require.Len(t, recent, 2)
		assert.Equal(t, "ROOM03", recent[0].RoomID)
		assert.Equal(t, "ROOM02", recent[1].RoomID)

		none, err := matchRepo.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
