package models

import "time"

// Participant is a Discord user present in a channel session. A
// disconnected participant stays in the roster for a grace window so a
// reconnect can pick up their seat again.
type Participant struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar,omitempty"`
	DisplayName string    `json:"global_name,omitempty"`
	Connected   bool      `json:"connected"`
	LastSeen    time.Time `json:"-"`
}
