package entity

import "encoding/json"

const (
	PlayerX   Symbol = "X"
	PlayerO   Symbol = "O"
	EmptyCell Symbol = ""

	Draw = "draw"

	BoardSize = 9
)

// WinCombos - rows, then columns, then diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Symbol - a player mark or an empty cell.
type Symbol string

// Opponent - returns the other mark.
func (that Symbol) Opponent() Symbol {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// MarshalJSON - an empty cell is sent as null.
func (that Symbol) MarshalJSON() ([]byte, error) {
	if that == EmptyCell {
		return []byte("null"), nil
	}
	return json.Marshal(string(that))
}

// UnmarshalJSON - null is read back as an empty cell.
func (that *Symbol) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = EmptyCell
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*that = Symbol(s)
	return nil
}

type Board [BoardSize]Symbol

// IsFull - reports whether every cell is taken.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

// Count - number of cells holding the given mark.
func (that Board) Count(symbol Symbol) int {
	n := 0
	for _, cell := range that {
		if cell == symbol {
			n++
		}
	}
	return n
}

type Outcome struct {
	Winner      string `json:"winner"`
	WinningLine []int  `json:"winningLine"`
}

// IsDraw - reports whether the board filled up without a winner.
func (that *Outcome) IsDraw() bool {
	return that != nil && that.Winner == Draw
}

type GameState struct {
	Board   Board             `json:"board"`
	Turn    Symbol            `json:"turn"`
	Result  *Outcome          `json:"result"`
	Players map[string]Symbol `json:"players"`
}

// NewGameState - empty board, X moves first.
func NewGameState() GameState {
	return GameState{
		Turn:    PlayerX,
		Players: make(map[string]Symbol, 2),
	}
}

// IsFinished - a result freezes the board.
func (that *GameState) IsFinished() bool {
	return that.Result != nil
}

// Clone - deep copy safe to hand outside the room lock.
func (that *GameState) Clone() GameState {
	out := GameState{
		Board:   that.Board,
		Turn:    that.Turn,
		Players: make(map[string]Symbol, len(that.Players)),
	}

	for id, symbol := range that.Players {
		out.Players[id] = symbol
	}

	if that.Result != nil {
		line := make([]int, len(that.Result.WinningLine))
		copy(line, that.Result.WinningLine)
		out.Result = &Outcome{Winner: that.Result.Winner, WinningLine: line}
	}

	return out
}
