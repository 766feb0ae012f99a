package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// newActiveRoom - room with A as X and B as O.
func newActiveRoom(t *testing.T) *Room {
	t.Helper()

	room := newRoom("ROOM01")
	require.NoError(t, room.AddCreator("A", nopConn{}, nil))
	require.NoError(t, room.AddJoiner("B", nopConn{}, nil))

	return room
}

func TestRoom_AddCreator(t *testing.T) {
	t.Run("Creator gets X and the state is published", func(t *testing.T) {
		// Given: an empty room
		room := newRoom("ROOM01")
		rec := &publishRecorder{}

		// When: A creates it
		err := room.AddCreator("A", nopConn{}, rec.publish)

		// Then: A is X and one state was published
		require.NoError(t, err)
		require.Equal(t, 1, rec.count())
		state := rec.last()
		assert.Equal(t, map[string]entity.Symbol{"A": entity.PlayerX}, state.Players)
		assert.Equal(t, entity.PlayerX, state.Turn)
		assert.Nil(t, state.Result)
		assert.Equal(t, entity.Board{}, state.Board)
	})

	t.Run("Room with a member refuses a second creator", func(t *testing.T) {
		// Given: a room that already has a creator
		room := newRoom("ROOM01")
		require.NoError(t, room.AddCreator("A", nopConn{}, nil))

		// When: another creator is added
		err := room.AddCreator("B", nopConn{}, nil)

		// Then: it fails
		require.ErrorIs(t, err, apperror.ErrRoomNotEmpty)
		assert.Equal(t, 1, room.MemberCount())
	})
}

func TestRoom_AddJoiner(t *testing.T) {
	t.Run("Joiner gets O", func(t *testing.T) {
		// Given: a room with a creator
		room := newRoom("ROOM01")
		require.NoError(t, room.AddCreator("A", nopConn{}, nil))
		rec := &publishRecorder{}

		// When: B joins
		err := room.AddJoiner("B", nopConn{}, rec.publish)

		// Then: B is O and both members receive the state
		require.NoError(t, err)
		state := rec.last()
		assert.Equal(t, map[string]entity.Symbol{"A": entity.PlayerX, "B": entity.PlayerO}, state.Players)
		require.Len(t, rec.members[0], 2)
		assert.Equal(t, "A", rec.members[0][0].ID)
		assert.Equal(t, "B", rec.members[0][1].ID)
	})

	t.Run("Full room rejects a third member without changing state", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)
		before := room.Snapshot()
		rec := &publishRecorder{}

		// When: C tries to join
		err := room.AddJoiner("C", nopConn{}, rec.publish)

		// Then: RoomFull and nothing changed
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, before, room.Snapshot())
		assert.Equal(t, 2, room.MemberCount())
		assert.Zero(t, rec.count())
	})

	t.Run("Member cannot join twice", func(t *testing.T) {
		// Given: a room created by A
		room := newRoom("ROOM01")
		require.NoError(t, room.AddCreator("A", nopConn{}, nil))

		// When: A joins its own room
		err := room.AddJoiner("A", nopConn{}, nil)

		// Then: it is refused
		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
	})

	t.Run("Closed room looks missing", func(t *testing.T) {
		// Given: a room that was torn down
		room := newRoom("ROOM01")
		require.NoError(t, room.AddCreator("A", nopConn{}, nil))
		_, err := room.RemoveMember("A")
		require.NoError(t, err)

		// When: B tries to join
		err = room.AddJoiner("B", nopConn{}, nil)

		// Then: the room is not found
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoom_ApplyMove(t *testing.T) {
	t.Run("Accepted move is published", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)
		rec := &publishRecorder{}

		// When: A (X) plays cell 4
		err := room.ApplyMove("A", 4, rec.publish)

		// Then: the published board has X in the center and O to move
		require.NoError(t, err)
		state := rec.last()
		assert.Equal(t, entity.PlayerX, state.Board[4])
		assert.Equal(t, entity.PlayerO, state.Turn)
	})

	t.Run("Rejected moves are no-ops", func(t *testing.T) {
		cases := []struct {
			name     string
			identity string
			index    int
			want     error
		}{
			{"wrong turn", "B", 0, apperror.ErrNotYourTurn},
			{"stranger", "C", 0, apperror.ErrNotYourTurn},
			{"below range", "A", -1, apperror.ErrInvalidCell},
			{"above range", "A", 9, apperror.ErrInvalidCell},
			{"occupied", "A", 8, apperror.ErrCellOccupied},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				// Given: X on 0, O on 8, X to move
				room := newActiveRoom(t)
				require.NoError(t, room.ApplyMove("A", 0, nil))
				require.NoError(t, room.ApplyMove("B", 8, nil))
				before := room.Snapshot()
				rec := &publishRecorder{}

				// When: the illegal move is submitted
				err := room.ApplyMove(tc.identity, tc.index, rec.publish)

				// Then: it is rejected, nothing is published, the state is unchanged
				require.ErrorIs(t, err, tc.want)
				assert.Zero(t, rec.count())
				assert.Equal(t, before, room.Snapshot())
			})
		}
	})

	t.Run("Winning move freezes the game", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: X takes the left column
		for _, move := range []struct {
			id   string
			cell int
		}{{"A", 0}, {"B", 1}, {"A", 3}, {"B", 2}, {"A", 6}} {
			require.NoError(t, room.ApplyMove(move.id, move.cell, nil))
		}

		// Then: the result is set and no more moves are accepted
		state := room.Snapshot()
		require.NotNil(t, state.Result)
		assert.Equal(t, "X", state.Result.Winner)
		assert.Equal(t, []int{0, 3, 6}, state.Result.WinningLine)

		err := room.ApplyMove("B", 4, nil)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestRoom_Reset(t *testing.T) {
	t.Run("Reset swaps marks and clears the board", func(t *testing.T) {
		// Given: a finished game where A (X) won
		room := newActiveRoom(t)
		for _, move := range []struct {
			id   string
			cell int
		}{{"A", 0}, {"B", 3}, {"A", 1}, {"B", 4}, {"A", 2}} {
			require.NoError(t, room.ApplyMove(move.id, move.cell, nil))
		}
		rec := &publishRecorder{}

		// When: B asks for a reset
		err := room.Reset("B", rec.publish)

		// Then: B is X, A is O, the board is empty and X moves first
		require.NoError(t, err)
		state := rec.last()
		assert.Equal(t, map[string]entity.Symbol{"A": entity.PlayerO, "B": entity.PlayerX}, state.Players)
		assert.Equal(t, entity.Board{}, state.Board)
		assert.Equal(t, entity.PlayerX, state.Turn)
		assert.Nil(t, state.Result)

		// And: the new X is the one allowed to move
		require.ErrorIs(t, room.ApplyMove("A", 0, nil), apperror.ErrNotYourTurn)
		require.NoError(t, room.ApplyMove("B", 0, nil))
	})

	t.Run("Reset twice restores the original marks", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: resetting twice
		require.NoError(t, room.Reset("A", nil))
		require.NoError(t, room.Reset("A", nil))

		// Then: A is X again
		assert.Equal(t, entity.PlayerX, room.Snapshot().Players["A"])
	})

	t.Run("Reset with one member is a no-op", func(t *testing.T) {
		// Given: a waiting room
		room := newRoom("ROOM01")
		require.NoError(t, room.AddCreator("A", nopConn{}, nil))
		require.NoError(t, room.ApplyMove("A", 4, nil))
		before := room.Snapshot()
		rec := &publishRecorder{}

		// When: the creator resets
		err := room.Reset("A", rec.publish)

		// Then: nothing happens
		require.ErrorIs(t, err, apperror.ErrNotEnoughPlayers)
		assert.Zero(t, rec.count())
		assert.Equal(t, before, room.Snapshot())
	})

	t.Run("Stranger cannot reset", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: C resets
		err := room.Reset("C", nil)

		// Then: refused
		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})
}

func TestRoom_RemoveMember(t *testing.T) {
	t.Run("Leaving returns the opponent once", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: A leaves
		remaining, err := room.RemoveMember("A")

		// Then: B is the only one to notify and the room is empty
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "B", remaining[0].ID)
		assert.Zero(t, room.MemberCount())
		assert.False(t, room.IsMember("B"))

		// And: a second removal reports the room as closed
		remaining, err = room.RemoveMember("B")
		require.ErrorIs(t, err, apperror.ErrRoomClosed)
		assert.Empty(t, remaining)
	})

	t.Run("Stranger cannot tear the room down", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: an identity that never joined is removed
		remaining, err := room.RemoveMember("C")

		// Then: it is refused and both members keep playing
		require.ErrorIs(t, err, apperror.ErrNotInRoom)
		assert.Empty(t, remaining)
		assert.Equal(t, 2, room.MemberCount())
		require.NoError(t, room.ApplyMove("A", 0, nil))
	})

	t.Run("Concurrent leaves notify exactly once", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)

		// When: both members leave at the same time, repeatedly
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			notified  int
		)
		for i := 0; i < 10; i++ {
			for _, id := range []string{"A", "B"} {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					remaining, err := room.RemoveMember(id)
					if err != nil {
						return
					}
					mu.Lock()
					successes++
					notified += len(remaining)
					mu.Unlock()
				}(id)
			}
		}
		wg.Wait()

		// Then: exactly one removal won and exactly one member was handed back
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, notified)
	})

	t.Run("Operations on a closed room fail", func(t *testing.T) {
		// Given: a torn down room
		room := newActiveRoom(t)
		_, err := room.RemoveMember("B")
		require.NoError(t, err)

		// Then: nothing else is accepted
		require.ErrorIs(t, room.ApplyMove("A", 0, nil), apperror.ErrRoomClosed)
		require.ErrorIs(t, room.Reset("A", nil), apperror.ErrRoomClosed)
		require.ErrorIs(t, room.AddCreator("C", nopConn{}, nil), apperror.ErrRoomClosed)
	})
}

func TestRoom_ConcurrentMoves(t *testing.T) {
	t.Run("Races for the same cell admit one winner", func(t *testing.T) {
		// Given: an active room
		room := newActiveRoom(t)
		rec := &publishRecorder{}

		// When: both players hammer every cell concurrently
		var wg sync.WaitGroup
		for _, id := range []string{"A", "B"} {
			for cell := 0; cell < entity.BoardSize; cell++ {
				wg.Add(1)
				go func(id string, cell int) {
					defer wg.Done()
					_ = room.ApplyMove(id, cell, rec.publish)
				}(id, cell)
			}
		}
		wg.Wait()

		// Then: every published state is consistent with alternating turns
		state := room.Snapshot()
		xs, os := state.Board.Count(entity.PlayerX), state.Board.Count(entity.PlayerO)
		assert.True(t, xs == os || xs == os+1)
		assert.Equal(t, xs+os, rec.count())

		for i, published := range rec.states {
			placed := published.Board.Count(entity.PlayerX) + published.Board.Count(entity.PlayerO)
			assert.Equal(t, i+1, placed)
		}
	})
}
