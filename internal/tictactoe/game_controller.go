package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Evaluate - returns the outcome of the board, or nil while the game is still open.
func Evaluate(board entity.Board) *entity.Outcome {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return &entity.Outcome{
				Winner:      string(a),
				WinningLine: []int{combo[0], combo[1], combo[2]},
			}
		}
	}

	// the game will continue until all the squares are full
	if !board.IsFull() {
		return nil
	}

	return &entity.Outcome{Winner: entity.Draw, WinningLine: []int{}}
}

// MakeTurn - places the mark, passes the turn and freezes the result once the game is over.
// The state is left untouched when an error is returned.
func MakeTurn(state *entity.GameState, symbol entity.Symbol, cell int) error {
	if state.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(state, symbol, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	state.Board[cell] = symbol
	state.Turn = symbol.Opponent()
	state.Result = Evaluate(state.Board)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(state *entity.GameState, symbol entity.Symbol, cell int) error {
	if symbol == entity.EmptyCell || state.Turn != symbol {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(state.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if state.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}
