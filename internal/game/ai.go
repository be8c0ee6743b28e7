package game

import (
	"math"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

// NoMove is returned by BestMove when the board has no empty cell.
const NoMove = -1

// BestMove picks the strongest move for the AI, which always plays O.
// It runs a full minimax search with alpha-beta pruning over the
// remaining cells; the depth term makes the AI prefer faster wins and
// slower losses. Callers must not invoke it on a terminal board.
func BestMove(state models.GameState) int {
	board := state.Board
	bestScore := math.Inf(-1)
	best := NoMove

	for i := range board {
		if board[i] != models.SymbolNone {
			continue
		}
		board[i] = models.SymbolO
		score := minimax(board, 0, false, math.Inf(-1), math.Inf(1))
		board[i] = models.SymbolNone
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	return best
}

func minimax(board models.Board, depth int, maximizing bool, alpha, beta float64) float64 {
	winner, _ := CheckWinner(board)
	switch winner {
	case models.SymbolO:
		return float64(10 - depth)
	case models.SymbolX:
		return float64(depth - 10)
	}
	if board.IsFull() {
		return 0
	}

	if maximizing {
		best := math.Inf(-1)
		for i := range board {
			if board[i] != models.SymbolNone {
				continue
			}
			board[i] = models.SymbolO
			score := minimax(board, depth+1, false, alpha, beta)
			board[i] = models.SymbolNone
			best = math.Max(best, score)
			alpha = math.Max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := math.Inf(1)
	for i := range board {
		if board[i] != models.SymbolNone {
			continue
		}
		board[i] = models.SymbolX
		score := minimax(board, depth+1, true, alpha, beta)
		board[i] = models.SymbolNone
		best = math.Min(best, score)
		beta = math.Min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return best
}
