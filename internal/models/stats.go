package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserStats holds the cumulative per-user counters. Counters are never
// decremented; every increment happens in the same transaction as the
// matching GameHistory insert.
type UserStats struct {
	UserID        string    `gorm:"primaryKey;column:user_id" json:"userId"`
	Username      string    `gorm:"not null" json:"username"`
	Wins          int       `gorm:"not null;default:0" json:"wins"`
	Losses        int       `gorm:"not null;default:0" json:"losses"`
	Draws         int       `gorm:"not null;default:0" json:"draws"`
	TotalGames    int       `gorm:"not null;default:0;column:total_games" json:"totalGames"`
	AIGamesPlayed int       `gorm:"not null;default:0;column:ai_games_played" json:"aiGamesPlayed"`
	AIWins        int       `gorm:"not null;default:0;column:ai_wins" json:"aiWins"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserStats) TableName() string { return "user_stats" }

// GameHistory is the write-once record of a completed or abandoned game.
type GameHistory struct {
	GameID      uint           `gorm:"primaryKey;autoIncrement;column:game_id" json:"game_id"`
	RoomID      string         `gorm:"not null;index;column:room_id" json:"room_id"`
	PlayerX     string         `gorm:"not null;column:player_x" json:"player_x"`
	PlayerO     string         `gorm:"not null;column:player_o" json:"player_o"`
	Winner      *string        `json:"winner,omitempty"`
	IsDraw      bool           `gorm:"not null;default:false;column:is_draw" json:"is_draw"`
	IsAIGame    bool           `gorm:"not null;default:false;column:is_ai_game" json:"is_ai_game"`
	Moves       datatypes.JSON `json:"moves"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

func (GameHistory) TableName() string { return "game_history" }
