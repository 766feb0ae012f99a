package entity

import "time"

// Match - a finished game kept for history.
type Match struct {
	RoomID      string            `json:"room_id"`
	Players     map[string]Symbol `json:"players"`
	Winner      string            `json:"winner"`
	WinningLine []int             `json:"winning_line"`
	Board       Board             `json:"board"`
	FinishedAt  time.Time         `json:"finished_at"`
}

type MatchStats struct {
	Games int64 `json:"games"`
	XWins int64 `json:"x_wins"`
	OWins int64 `json:"o_wins"`
	Draws int64 `json:"draws"`
}

// NewMatch - builds a history record from a finished state.
func NewMatch(roomID string, state GameState, finishedAt time.Time) *Match {
	clone := state.Clone()

	match := &Match{
		RoomID:     roomID,
		Players:    clone.Players,
		Board:      clone.Board,
		FinishedAt: finishedAt,
	}

	if clone.Result != nil {
		match.Winner = clone.Result.Winner
		match.WinningLine = clone.Result.WinningLine
	}

	return match
}
