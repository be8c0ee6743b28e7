package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

// GameStateTTL bounds how long a cached game survives without updates.
const GameStateTTL = time.Hour

// GameCache keeps a transient copy of live game states in Redis as a
// crash-recovery aid. The in-memory registry stays authoritative while
// the process is alive; a nil *GameCache is valid and does nothing, so
// gameplay keeps working when Redis is not configured.
type GameCache struct {
	client *redis.Client
}

// Connect dials Redis and verifies the connection. An empty URL disables
// the cache.
func Connect(ctx context.Context, url string) (*GameCache, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Println("redis connected")
	return &GameCache{client: client}, nil
}

func gameKey(roomID, gameID string) string {
	return fmt.Sprintf("game:%s:%s", roomID, gameID)
}

// Save stores the game state under its room and game id with the TTL.
func (c *GameCache) Save(ctx context.Context, state models.GameState) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	return c.client.Set(ctx, gameKey(state.RoomID, state.ID), data, GameStateTTL).Err()
}

// Get loads a cached game state, returning ok=false when absent.
func (c *GameCache) Get(ctx context.Context, roomID, gameID string) (models.GameState, bool, error) {
	if c == nil {
		return models.GameState{}, false, nil
	}
	data, err := c.client.Get(ctx, gameKey(roomID, gameID)).Bytes()
	if err == redis.Nil {
		return models.GameState{}, false, nil
	}
	if err != nil {
		return models.GameState{}, false, err
	}
	var state models.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.GameState{}, false, fmt.Errorf("unmarshal game state: %w", err)
	}
	return state, true, nil
}

// Delete evicts a cached game state.
func (c *GameCache) Delete(ctx context.Context, roomID, gameID string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, gameKey(roomID, gameID)).Err()
}

// Close releases the underlying client.
func (c *GameCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
