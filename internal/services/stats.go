package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

// Completion describes one finished (or abandoned) game for recording.
type Completion struct {
	RoomID    string
	PlayerX   models.PlayerRef
	PlayerO   models.PlayerRef
	Winner    models.Symbol
	IsDraw    bool
	IsAIGame  bool
	Moves     []models.Move
	Usernames map[string]string
}

// statDelta is the set of counter increments one player receives for one
// completed game.
type statDelta struct {
	Wins          int
	Losses        int
	Draws         int
	TotalGames    int
	AIGamesPlayed int
	AIWins        int
}

// completionDeltas computes the per-human counter increments for a
// completed game. The AI sentinel never receives a delta.
func completionDeltas(c Completion) map[string]statDelta {
	deltas := make(map[string]statDelta)

	add := func(ref models.PlayerRef, d statDelta) {
		if !ref.IsHuman() {
			return
		}
		cur := deltas[ref.UserID]
		cur.Wins += d.Wins
		cur.Losses += d.Losses
		cur.Draws += d.Draws
		cur.TotalGames += d.TotalGames
		cur.AIGamesPlayed += d.AIGamesPlayed
		cur.AIWins += d.AIWins
		deltas[ref.UserID] = cur
	}

	switch {
	case c.IsDraw:
		if c.IsAIGame {
			add(c.PlayerX, statDelta{Draws: 1, TotalGames: 1, AIGamesPlayed: 1})
			add(c.PlayerO, statDelta{Draws: 1, TotalGames: 1, AIGamesPlayed: 1})
		} else {
			add(c.PlayerX, statDelta{Draws: 1, TotalGames: 1})
			add(c.PlayerO, statDelta{Draws: 1, TotalGames: 1})
		}
	case c.Winner != models.SymbolNone:
		winner := models.Players{X: c.PlayerX, O: c.PlayerO}.BySymbol(c.Winner)
		loser := models.Players{X: c.PlayerX, O: c.PlayerO}.BySymbol(c.Winner.Other())
		if c.IsAIGame {
			add(winner, statDelta{Wins: 1, TotalGames: 1, AIGamesPlayed: 1, AIWins: 1})
			add(loser, statDelta{Losses: 1, TotalGames: 1, AIGamesPlayed: 1})
		} else {
			add(winner, statDelta{Wins: 1, TotalGames: 1})
			add(loser, statDelta{Losses: 1, TotalGames: 1})
		}
	}

	return deltas
}

// StatsService persists game history and per-user counters.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// RecordCompletion appends the game-history row and applies the counter
// increments for every human participant in one transaction. A failure
// anywhere rolls the whole recording back, so a retry never double
// counts.
func (s *StatsService) RecordCompletion(ctx context.Context, c Completion) error {
	movesJSON, err := json.Marshal(c.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}

	var winner *string
	if !c.IsDraw && c.Winner != models.SymbolNone {
		s := string(c.Winner)
		winner = &s
	}

	deltas := completionDeltas(c)
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history := models.GameHistory{
			RoomID:      c.RoomID,
			PlayerX:     c.PlayerX.HistoryID(),
			PlayerO:     c.PlayerO.HistoryID(),
			Winner:      winner,
			IsDraw:      c.IsDraw,
			IsAIGame:    c.IsAIGame,
			Moves:       movesJSON,
			CompletedAt: &now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("insert game history: %w", err)
		}

		for userID, d := range deltas {
			row := models.UserStats{
				UserID:        userID,
				Username:      c.Usernames[userID],
				Wins:          d.Wins,
				Losses:        d.Losses,
				Draws:         d.Draws,
				TotalGames:    d.TotalGames,
				AIGamesPlayed: d.AIGamesPlayed,
				AIWins:        d.AIWins,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"wins":            gorm.Expr("user_stats.wins + ?", d.Wins),
					"losses":          gorm.Expr("user_stats.losses + ?", d.Losses),
					"draws":           gorm.Expr("user_stats.draws + ?", d.Draws),
					"total_games":     gorm.Expr("user_stats.total_games + ?", d.TotalGames),
					"ai_games_played": gorm.Expr("user_stats.ai_games_played + ?", d.AIGamesPlayed),
					"ai_wins":         gorm.Expr("user_stats.ai_wins + ?", d.AIWins),
					"updated_at":      now,
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("update stats for %s: %w", userID, err)
			}
		}
		return nil
	})
}

// GetStats returns the counters for one user, or nil when the user has
// no recorded games yet.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
