package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrGameNotFound    = errors.New("game not found")
)

// channelSession aggregates everything belonging to one Discord channel:
// the participant roster (in join order) and the live games. Its mutex is
// the per-channel exclusion boundary; unrelated channels never contend.
type channelSession struct {
	mu           sync.Mutex
	id           string
	participants map[string]*models.Participant
	order        []string
	games        map[string]models.GameState
	lastActivity time.Time
}

// Registry is the sole owner of all channel sessions, participants and
// game states. Every mutation goes through one of its methods; callers
// only ever see copies of the stored values.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*channelSession
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]*channelSession)}
}

// channel returns the session for a channel, creating it lazily when
// create is set.
func (r *Registry) channel(channelID string, create bool) *channelSession {
	r.mu.RLock()
	cs := r.channels[channelID]
	r.mu.RUnlock()
	if cs != nil || !create {
		return cs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cs = r.channels[channelID]; cs == nil {
		cs = &channelSession{
			id:           channelID,
			participants: make(map[string]*models.Participant),
			games:        make(map[string]models.GameState),
			lastActivity: time.Now(),
		}
		r.channels[channelID] = cs
	}
	return cs
}

// Join adds a participant to the channel roster or refreshes an existing
// entry. Idempotent on the participant id.
func (r *Registry) Join(channelID string, p models.Participant) {
	cs := r.channel(channelID, true)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	p.Connected = true
	p.LastSeen = time.Now()

	if existing, ok := cs.participants[p.ID]; ok {
		existing.Username = p.Username
		existing.Avatar = p.Avatar
		existing.DisplayName = p.DisplayName
		existing.Connected = true
		existing.LastSeen = p.LastSeen
	} else {
		cs.participants[p.ID] = &p
		cs.order = append(cs.order, p.ID)
	}
	cs.lastActivity = time.Now()
}

// Leave marks a participant disconnected. The roster entry survives for
// the reconnection grace window; the sweep drops it later.
func (r *Registry) Leave(channelID, userID string) bool {
	cs := r.channel(channelID, false)
	if cs == nil {
		return false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	p, ok := cs.participants[userID]
	if !ok {
		return false
	}
	p.Connected = false
	p.LastSeen = time.Now()
	cs.lastActivity = time.Now()
	return true
}

// Participant returns a copy of the roster entry for the given user.
func (r *Registry) Participant(channelID, userID string) (models.Participant, bool) {
	cs := r.channel(channelID, false)
	if cs == nil {
		return models.Participant{}, false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	p, ok := cs.participants[userID]
	if !ok {
		return models.Participant{}, false
	}
	return *p, true
}

// Participants returns the roster in join order.
func (r *Registry) Participants(channelID string) []models.Participant {
	cs := r.channel(channelID, false)
	if cs == nil {
		return nil
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]models.Participant, 0, len(cs.order))
	for _, id := range cs.order {
		out = append(out, *cs.participants[id])
	}
	return out
}

// ListAvailable is the single definition of "eligible opponent":
// connected, not the requesting user, and not already holding a side in
// any live game of this channel.
func (r *Registry) ListAvailable(channelID, excludeID string) []models.Participant {
	cs := r.channel(channelID, false)
	if cs == nil {
		return nil
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	seated := make(map[string]bool)
	for _, g := range cs.games {
		if g.Players.X.IsHuman() {
			seated[g.Players.X.UserID] = true
		}
		if g.Players.O.IsHuman() {
			seated[g.Players.O.UserID] = true
		}
	}

	var out []models.Participant
	for _, id := range cs.order {
		p := cs.participants[id]
		if id == excludeID || !p.Connected || seated[id] {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// CreateGame inserts a fresh game with a collision-free id. X always
// moves first.
func (r *Registry) CreateGame(channelID string, playerX, playerO models.PlayerRef, isAIGame bool) models.GameState {
	cs := r.channel(channelID, true)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	state := models.GameState{
		ID:            uuid.NewString(),
		CurrentPlayer: models.SymbolX,
		Players:       models.Players{X: playerX, O: playerO},
		RoomID:        channelID,
		IsAIGame:      isAIGame,
		Version:       1,
	}
	cs.games[state.ID] = state
	cs.lastActivity = time.Now()
	return state
}

// Game returns a copy of the identified game.
func (r *Registry) Game(channelID, gameID string) (models.GameState, bool) {
	cs := r.channel(channelID, false)
	if cs == nil {
		return models.GameState{}, false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	g, ok := cs.games[gameID]
	return g, ok
}

// GameForUser returns the live game the given user holds a side in, if
// any.
func (r *Registry) GameForUser(channelID, userID string) (models.GameState, bool) {
	cs := r.channel(channelID, false)
	if cs == nil {
		return models.GameState{}, false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, g := range cs.games {
		if g.HasPlayer(userID) {
			return g, true
		}
	}
	return models.GameState{}, false
}

// UpdateGame runs fn on the current state of a game while holding the
// channel lock and stores whatever state fn returns. This is the
// serialization point for concurrent moves.
func (r *Registry) UpdateGame(channelID, gameID string, fn func(models.GameState) (models.GameState, error)) (models.GameState, error) {
	return r.UpdateGameThen(channelID, gameID, fn, nil)
}

// UpdateGameThen is UpdateGame with a hook that runs on the stored state
// while the channel lock is still held. Publishing the new state from
// the hook keeps pushes in version order: the whole
// read-validate-write-broadcast sequence happens under one lock.
func (r *Registry) UpdateGameThen(channelID, gameID string, fn func(models.GameState) (models.GameState, error), then func(models.GameState)) (models.GameState, error) {
	cs := r.channel(channelID, false)
	if cs == nil {
		return models.GameState{}, ErrChannelNotFound
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	g, ok := cs.games[gameID]
	if !ok {
		return models.GameState{}, ErrGameNotFound
	}
	next, err := fn(g)
	if err != nil {
		return models.GameState{}, err
	}
	cs.games[gameID] = next
	cs.lastActivity = time.Now()
	if then != nil {
		then(next)
	}
	return next, nil
}

// RemoveGame deletes a game outright.
func (r *Registry) RemoveGame(channelID, gameID string) bool {
	cs := r.channel(channelID, false)
	if cs == nil {
		return false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.games[gameID]; !ok {
		return false
	}
	delete(cs.games, gameID)
	cs.lastActivity = time.Now()
	return true
}

// RemoveGameIfVersion deletes a game only when its version still matches
// the one a scheduled cleanup was armed against. A reset or later move in
// between makes the stale timer a no-op.
func (r *Registry) RemoveGameIfVersion(channelID, gameID string, version uint64) bool {
	cs := r.channel(channelID, false)
	if cs == nil {
		return false
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	g, ok := cs.games[gameID]
	if !ok || g.Version != version {
		return false
	}
	delete(cs.games, gameID)
	cs.lastActivity = time.Now()
	return true
}

// AbandonedHumanGames returns the human-vs-human games of a channel in
// which every human seat is currently disconnected.
func (r *Registry) AbandonedHumanGames(channelID string) []models.GameState {
	cs := r.channel(channelID, false)
	if cs == nil {
		return nil
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.abandonedHumanGamesLocked()
}

func (cs *channelSession) abandonedHumanGamesLocked() []models.GameState {
	var out []models.GameState
	for _, g := range cs.games {
		if g.IsAIGame {
			continue
		}
		humans := 0
		connected := 0
		for _, ref := range []models.PlayerRef{g.Players.X, g.Players.O} {
			if !ref.IsHuman() {
				continue
			}
			humans++
			if p, ok := cs.participants[ref.UserID]; ok && p.Connected {
				connected++
			}
		}
		if humans > 0 && connected == 0 {
			out = append(out, g)
		}
	}
	return out
}

// Sweep drops roster entries disconnected longer than the grace window,
// collects fully-abandoned human games for the caller to record, drops
// AI games whose human side stayed gone past the window (returned as
// expired, never stats-recorded), and removes channels left with no
// connected participants and no games.
func (r *Registry) Sweep(grace time.Duration) (removedChannels []string, abandoned, expired []models.GameState) {
	now := time.Now()

	r.mu.Lock()
	channels := make([]*channelSession, 0, len(r.channels))
	for _, cs := range r.channels {
		channels = append(channels, cs)
	}
	r.mu.Unlock()

	var dead []string
	for _, cs := range channels {
		cs.mu.Lock()

		for _, g := range cs.abandonedHumanGamesLocked() {
			abandoned = append(abandoned, g)
			delete(cs.games, g.ID)
		}

		for id, g := range cs.games {
			if !g.IsAIGame {
				continue
			}
			gone := true
			for _, ref := range []models.PlayerRef{g.Players.X, g.Players.O} {
				if !ref.IsHuman() {
					continue
				}
				if p, ok := cs.participants[ref.UserID]; ok && (p.Connected || now.Sub(p.LastSeen) <= grace) {
					gone = false
				}
			}
			if gone {
				expired = append(expired, g)
				delete(cs.games, id)
			}
		}

		kept := cs.order[:0]
		for _, id := range cs.order {
			p := cs.participants[id]
			if !p.Connected && now.Sub(p.LastSeen) > grace {
				delete(cs.participants, id)
				continue
			}
			kept = append(kept, id)
		}
		cs.order = kept

		connected := 0
		for _, p := range cs.participants {
			if p.Connected {
				connected++
			}
		}
		if connected == 0 && len(cs.games) == 0 {
			dead = append(dead, cs.id)
		}
		cs.mu.Unlock()
	}

	if len(dead) > 0 {
		r.mu.Lock()
		for _, id := range dead {
			delete(r.channels, id)
			removedChannels = append(removedChannels, id)
		}
		r.mu.Unlock()
	}
	return removedChannels, abandoned, expired
}
