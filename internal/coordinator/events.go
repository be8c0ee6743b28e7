package coordinator

import (
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/ws"
)

// Inbound event names accepted over the WebSocket.
const (
	EventInitializeSession = "initializeSession"
	EventSendGameInvite    = "sendGameInvite"
	EventRespondToInvite   = "respondToInvite"
	EventMove              = "move"
	EventResetGame         = "resetGame"
	EventRequestStats      = "requestStats"
)

// Outbound event names.
const (
	EventSessionState   = "sessionState"
	EventGameState      = "gameState"
	EventGameInvite     = "gameInvite"
	EventInviteResponse = "inviteResponse"
	EventUserStats      = "userStats"
	EventError          = "error"
)

// InitializeSessionPayload announces a participant's presence in a
// channel, optionally starting an AI game right away.
type InitializeSessionPayload struct {
	ChannelID   string `json:"channelId"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	IsAIGame    bool   `json:"isAIGame"`
}

// SendInvitePayload asks to play against a specific participant.
type SendInvitePayload struct {
	InviterID string `json:"inviterId"`
	InviteeID string `json:"inviteeId"`
	ChannelID string `json:"channelId"`
}

// RespondToInvitePayload accepts or declines a pending invite.
type RespondToInvitePayload struct {
	InviteID  string `json:"inviteId"`
	Accepted  bool   `json:"accepted"`
	InviterID string `json:"inviterId"`
	InviteeID string `json:"inviteeId"`
	ChannelID string `json:"channelId"`
}

// MovePayload places a symbol on a cell of a specific game.
type MovePayload struct {
	Position int           `json:"position"`
	Player   models.Symbol `json:"player"`
	RoomID   string        `json:"roomId"`
	GameID   string        `json:"gameId"`
}

// ResetGamePayload clears a game back to a fresh board.
type ResetGamePayload struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
	IsAIGame  bool   `json:"isAIGame"`
	GameID    string `json:"gameId"`
}

// RequestStatsPayload asks for the requester's cumulative counters.
type RequestStatsPayload struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// SessionStatePayload is the per-viewer roster push.
type SessionStatePayload struct {
	Participants     []models.Participant `json:"participants"`
	AvailableForGame []models.Participant `json:"availableForGame"`
}

// GameStatePayload carries a game snapshot; a nil State tells clients the
// game record was cleaned up.
type GameStatePayload struct {
	GameID string            `json:"gameId"`
	State  *models.GameState `json:"state"`
}

// GameInvitePayload is delivered to the invitee only.
type GameInvitePayload struct {
	InviteID string             `json:"inviteId"`
	Inviter  models.Participant `json:"inviter"`
}

// InviteResponsePayload notifies the inviter of the outcome.
type InviteResponsePayload struct {
	Accepted  bool   `json:"accepted"`
	InviterID string `json:"inviterId"`
	InviteeID string `json:"inviteeId"`
}

func sessionStateEvent(p SessionStatePayload) ws.Event {
	return ws.Event{Type: EventSessionState, Data: p}
}

func gameStateEvent(gameID string, state *models.GameState) ws.Event {
	return ws.Event{Type: EventGameState, Data: GameStatePayload{GameID: gameID, State: state}}
}

func errorEvent(message string) ws.Event {
	return ws.Event{Type: EventError, Data: map[string]string{"message": message}}
}
