package game

import (
	"testing"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

func newAIGame() models.GameState {
	return models.GameState{
		ID:            "g-ai",
		CurrentPlayer: models.SymbolX,
		Players: models.Players{
			X: models.HumanPlayer("alice"),
			O: models.AIPlayer(),
		},
		RoomID:   "channel-ai",
		IsAIGame: true,
	}
}

func TestBestMoveFullBoardReturnsSentinel(t *testing.T) {
	state := newAIGame()
	state.Board = models.Board{x, o, x, x, o, o, o, x, x}
	if got := BestMove(state); got != NoMove {
		t.Fatalf("full board should yield NoMove, got %d", got)
	}
}

func TestBestMoveTakesImmediateWin(t *testing.T) {
	state := newAIGame()
	// O O _ on the top row, O to move.
	state.Board = models.Board{o, o, _e, x, x, _e, _e, _e, _e}
	state.CurrentPlayer = o
	if got := BestMove(state); got != 2 {
		t.Fatalf("AI must complete the winning row at 2, got %d", got)
	}
}

func TestBestMoveBlocksImmediateLoss(t *testing.T) {
	state := newAIGame()
	// X threatens 0-1-2; O has no win of its own.
	state.Board = models.Board{x, x, _e, _e, o, _e, _e, _e, _e}
	state.CurrentPlayer = o
	if got := BestMove(state); got != 2 {
		t.Fatalf("AI must block at 2, got %d", got)
	}
}

func TestBestMoveAnswersCenterWithCorner(t *testing.T) {
	state := newAIGame()
	state = ApplyMove(state, models.Move{Position: 4, Player: x})

	got := BestMove(state)
	corners := map[int]bool{0: true, 2: true, 6: true, 8: true}
	if !corners[got] {
		t.Fatalf("after X takes the center, O must take a corner, got %d", got)
	}
}

// TestAINeverLoses plays the AI (as O) against every possible sequence of
// X moves and asserts X never wins. The branching is at most 9*7*5*3
// games, small enough to search exhaustively.
func TestAINeverLoses(t *testing.T) {
	var play func(state models.GameState)
	play = func(state models.GameState) {
		if state.Winner == x {
			t.Fatalf("AI lost: board %v, moves %v", state.Board, state.Moves)
		}
		if state.IsOver() {
			return
		}
		if state.CurrentPlayer == o {
			mv := BestMove(state)
			if mv == NoMove {
				t.Fatalf("AI had no move on a non-terminal board %v", state.Board)
			}
			next := ApplyMove(state, models.Move{Position: mv, Player: o})
			if next.Version == state.Version {
				t.Fatalf("AI produced an illegal move %d on %v", mv, state.Board)
			}
			play(next)
			return
		}
		for i := range state.Board {
			if state.Board[i] != _e {
				continue
			}
			play(ApplyMove(state, models.Move{Position: i, Player: x}))
		}
	}

	play(newAIGame())
}
