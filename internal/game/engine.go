package game

import "github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"

// winningLines are scanned in a fixed order: rows top to bottom, then
// columns left to right, then the two diagonals. At most one line can be
// completed by a single move, so the order only matters for determinism.
var winningLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// CheckWinner scans the 8 lines and returns the winning symbol together
// with the completed line's cell indices, or (SymbolNone, nil).
func CheckWinner(board models.Board) (models.Symbol, []int) {
	for _, line := range winningLines {
		a, b, c := line[0], line[1], line[2]
		if board[a] != models.SymbolNone && board[a] == board[b] && board[b] == board[c] {
			return board[a], []int{a, b, c}
		}
	}
	return models.SymbolNone, nil
}

// CheckDraw reports whether the board is full with no winner.
func CheckDraw(board models.Board) bool {
	if !board.IsFull() {
		return false
	}
	winner, _ := CheckWinner(board)
	return winner == models.SymbolNone
}

// ApplyMove validates and applies a move, returning the resulting state.
// Illegal moves (terminal game, occupied cell, out of turn, position out
// of range, or a symbol with no assigned player) return the input state
// unchanged. A legal move returns a new state: the cell marked, the move
// recorded, winner/draw recomputed, the turn handed to the other symbol
// while the game is still in progress, and the version bumped.
func ApplyMove(state models.GameState, move models.Move) models.GameState {
	if state.IsOver() ||
		move.Position < 0 || move.Position > 8 ||
		state.Board[move.Position] != models.SymbolNone ||
		state.CurrentPlayer != move.Player ||
		state.Players.BySymbol(move.Player).IsNone() {
		return state
	}

	next := state
	next.Board[move.Position] = move.Player
	next.Moves = append(append([]models.Move(nil), state.Moves...), move)

	winner, line := CheckWinner(next.Board)
	next.Winner = winner
	next.WinningLine = line
	next.IsDraw = winner == models.SymbolNone && next.Board.IsFull()

	if next.IsOver() {
		next.CurrentPlayer = models.SymbolNone
	} else {
		next.CurrentPlayer = move.Player.Other()
	}
	next.Version = state.Version + 1

	return next
}
