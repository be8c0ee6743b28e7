package models

import (
	"encoding/json"
	"fmt"
)

// Symbol is one of the two board markers. X always moves first.
type Symbol string

const (
	SymbolNone Symbol = ""
	SymbolX    Symbol = "X"
	SymbolO    Symbol = "O"
)

// Other returns the opposing symbol.
func (s Symbol) Other() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	if s == SymbolO {
		return SymbolX
	}
	return SymbolNone
}

// Board holds the 9 cells in row-major order, positions 0-8.
type Board [9]Symbol

// IsFull reports whether no empty cell remains.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == SymbolNone {
			return false
		}
	}
	return true
}

// PlayerKind distinguishes the three ways a side can be occupied.
type PlayerKind int

const (
	PlayerNone PlayerKind = iota
	PlayerHuman
	PlayerAI
)

// AISentinel is the wire identity of the computer opponent.
const AISentinel = "AI"

// PlayerRef identifies who holds a side of the board: nobody, a human
// Discord user, or the AI. On the wire it is null, the user id, or "AI",
// matching what the frontend expects.
type PlayerRef struct {
	Kind   PlayerKind
	UserID string
}

func HumanPlayer(userID string) PlayerRef {
	return PlayerRef{Kind: PlayerHuman, UserID: userID}
}

func AIPlayer() PlayerRef {
	return PlayerRef{Kind: PlayerAI}
}

func NoPlayer() PlayerRef {
	return PlayerRef{Kind: PlayerNone}
}

func (p PlayerRef) IsHuman() bool { return p.Kind == PlayerHuman }
func (p PlayerRef) IsAI() bool    { return p.Kind == PlayerAI }
func (p PlayerRef) IsNone() bool  { return p.Kind == PlayerNone }

// Is reports whether the ref is the given human user.
func (p PlayerRef) Is(userID string) bool {
	return p.Kind == PlayerHuman && p.UserID == userID
}

// HistoryID is the identity stored in game history rows: the user id for
// humans, the AI sentinel for the computer, "unknown" for an empty seat.
func (p PlayerRef) HistoryID() string {
	switch p.Kind {
	case PlayerHuman:
		return p.UserID
	case PlayerAI:
		return AISentinel
	default:
		return "unknown"
	}
}

func (p PlayerRef) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PlayerHuman:
		return json.Marshal(p.UserID)
	case PlayerAI:
		return json.Marshal(AISentinel)
	default:
		return []byte("null"), nil
	}
}

func (p *PlayerRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoPlayer()
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("player ref: %w", err)
	}
	if id == AISentinel {
		*p = AIPlayer()
	} else {
		*p = HumanPlayer(id)
	}
	return nil
}

// Players maps the two symbols to their holders.
type Players struct {
	X PlayerRef `json:"X"`
	O PlayerRef `json:"O"`
}

// BySymbol returns the holder of the given symbol.
func (p Players) BySymbol(s Symbol) PlayerRef {
	if s == SymbolX {
		return p.X
	}
	if s == SymbolO {
		return p.O
	}
	return NoPlayer()
}

// Move is a single placement on the board.
type Move struct {
	Position int    `json:"position"`
	Player   Symbol `json:"player"`
}

// GameState is the authoritative record of one match. Successful moves
// produce a new value rather than mutating in place; Version increments
// with every accepted move or reset so that scheduled callbacks can detect
// they fire against stale state.
type GameState struct {
	ID            string  `json:"gameId"`
	Board         Board   `json:"board"`
	CurrentPlayer Symbol  `json:"currentPlayer"`
	Players       Players `json:"players"`
	Winner        Symbol  `json:"winner"`
	WinningLine   []int   `json:"winningLine"`
	IsDraw        bool    `json:"isDraw"`
	RoomID        string  `json:"roomId"`
	IsAIGame      bool    `json:"isAIGame"`
	Moves         []Move  `json:"moves,omitempty"`
	Version       uint64  `json:"-"`
}

// IsOver reports whether the game reached a terminal state.
func (g GameState) IsOver() bool {
	return g.Winner != SymbolNone || g.IsDraw
}

// HasPlayer reports whether the given human user holds either side.
func (g GameState) HasPlayer(userID string) bool {
	return g.Players.X.Is(userID) || g.Players.O.Is(userID)
}

// SymbolOf returns the symbol held by the given human user, or SymbolNone.
func (g GameState) SymbolOf(userID string) Symbol {
	if g.Players.X.Is(userID) {
		return SymbolX
	}
	if g.Players.O.Is(userID) {
		return SymbolO
	}
	return SymbolNone
}
