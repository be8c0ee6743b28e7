package coordinator

import (
	"context"
	"log"
	"time"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/game"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/services"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/session"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/ws"
)

// Broadcaster pushes events out to the clients of a channel.
type Broadcaster interface {
	Broadcast(channelID string, event ws.Event)
	SendToUser(channelID, userID string, event ws.Event) bool
}

// StatsRecorder persists completed games and serves the counters.
type StatsRecorder interface {
	RecordCompletion(ctx context.Context, c services.Completion) error
	GetStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// StateCache mirrors live game states into transient storage.
type StateCache interface {
	Save(ctx context.Context, state models.GameState) error
	Delete(ctx context.Context, roomID, gameID string) error
}

// Config holds the coordinator's timing knobs. Zero values fall back to
// the production defaults.
type Config struct {
	AIMoveDelay     time.Duration // pause before the AI answers
	CleanupDelay    time.Duration // how long a finished game stays visible
	SweepInterval   time.Duration // period of the dead-session sweep
	DisconnectGrace time.Duration // how long a disconnected roster entry survives
}

func (c Config) withDefaults() Config {
	if c.AIMoveDelay <= 0 {
		c.AIMoveDelay = time.Second
	}
	if c.CleanupDelay <= 0 {
		c.CleanupDelay = 5 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.DisconnectGrace <= 0 {
		c.DisconnectGrace = 2 * time.Minute
	}
	return c
}

// Coordinator orchestrates the per-channel session lifecycle: presence,
// invites, move arbitration, AI turns, completion recording and cleanup.
// All game and roster state lives in the registry; the coordinator owns
// the flow between the registry, the board engine, the stats store, the
// cache and the hub.
type Coordinator struct {
	registry *session.Registry
	invites  *session.InviteStore
	hub      Broadcaster
	stats    StatsRecorder
	cache    StateCache
	cfg      Config

	stopCh chan struct{}
}

func New(registry *session.Registry, invites *session.InviteStore, hub Broadcaster, stats StatsRecorder, cache StateCache, cfg Config) *Coordinator {
	return &Coordinator{
		registry: registry,
		invites:  invites,
		hub:      hub,
		stats:    stats,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic sweep. Stop ends it.
func (c *Coordinator) Start() {
	go c.sweepLoop()
}

func (c *Coordinator) Stop() {
	close(c.stopCh)
}

func (c *Coordinator) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.runSweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Coordinator) runSweep() {
	removed, abandoned, expired := c.registry.Sweep(c.cfg.DisconnectGrace)
	for _, g := range abandoned {
		log.Printf("coordinator: sweeping abandoned game %s in channel %s", g.ID, g.RoomID)
		c.finishAbandonedGame(g)
	}
	for _, g := range expired {
		// Orphaned AI games are dropped without touching the stats.
		log.Printf("coordinator: dropping orphaned AI game %s in channel %s", g.ID, g.RoomID)
		c.deleteFromCache(g.RoomID, g.ID)
		c.hub.Broadcast(g.RoomID, gameStateEvent(g.ID, nil))
	}
	for _, channelID := range removed {
		log.Printf("coordinator: dropped inactive channel %s", channelID)
	}
}

// InitializeSession registers a participant's presence. When AI mode is
// requested the channel goes straight to a human-vs-AI game with the
// human as X; a caller who already holds a game gets that game replaced
// in place rather than a second one stacked next to it.
func (c *Coordinator) InitializeSession(ctx context.Context, p InitializeSessionPayload) {
	c.registry.Join(p.ChannelID, models.Participant{
		ID:          p.UserID,
		Username:    p.Username,
		Avatar:      p.Avatar,
		DisplayName: p.DisplayName,
	})

	if p.IsAIGame {
		c.startAIGame(p.ChannelID, p.UserID)
	} else if existing, ok := c.registry.GameForUser(p.ChannelID, p.UserID); ok {
		c.hub.SendToUser(p.ChannelID, p.UserID, gameStateEvent(existing.ID, &existing))
	}

	c.pushSessionState(p.ChannelID)
	c.pushUserStats(ctx, p.ChannelID, p.UserID)
}

// startAIGame seats the user as X against the AI. An existing game the
// user holds a side in is reset into the fresh AI game, keeping its id
// and bumping its version so timers armed against the old game expire.
func (c *Coordinator) startAIGame(channelID, userID string) {
	if existing, ok := c.registry.GameForUser(channelID, userID); ok {
		fresh := func(g models.GameState) (models.GameState, error) {
			return models.GameState{
				ID:            g.ID,
				CurrentPlayer: models.SymbolX,
				Players:       models.Players{X: models.HumanPlayer(userID), O: models.AIPlayer()},
				RoomID:        g.RoomID,
				IsAIGame:      true,
				Version:       g.Version + 1,
			}, nil
		}
		if _, err := c.registry.UpdateGameThen(channelID, existing.ID, fresh, c.publishState); err == nil {
			return
		}
	}
	state := c.registry.CreateGame(channelID, models.HumanPlayer(userID), models.AIPlayer(), true)
	c.publishState(state)
}

// SendInvite delivers a game invite to the invitee's connection only.
func (c *Coordinator) SendInvite(p SendInvitePayload) {
	inviter, ok := c.registry.Participant(p.ChannelID, p.InviterID)
	if !ok {
		log.Printf("coordinator: invite from unknown participant %s in %s", p.InviterID, p.ChannelID)
		return
	}
	invitee, ok := c.registry.Participant(p.ChannelID, p.InviteeID)
	if !ok || !invitee.Connected {
		c.hub.SendToUser(p.ChannelID, p.InviterID, errorEvent("that player is no longer available"))
		return
	}

	inv := c.invites.Create(p.ChannelID, p.InviterID, p.InviteeID)
	c.hub.SendToUser(p.ChannelID, p.InviteeID, ws.Event{
		Type: EventGameInvite,
		Data: GameInvitePayload{InviteID: inv.ID, Inviter: inviter},
	})
}

// RespondToInvite consumes a pending invite. Accepting creates the
// human-vs-human game with the inviter as X; either way the inviter
// learns the outcome.
func (c *Coordinator) RespondToInvite(ctx context.Context, p RespondToInvitePayload) {
	inv, err := c.invites.Take(p.InviteID, p.InviteeID)
	if err != nil {
		c.hub.SendToUser(p.ChannelID, p.InviteeID, errorEvent("invite expired"))
		return
	}

	c.hub.SendToUser(inv.ChannelID, inv.InviterID, ws.Event{
		Type: EventInviteResponse,
		Data: InviteResponsePayload{Accepted: p.Accepted, InviterID: inv.InviterID, InviteeID: inv.InviteeID},
	})

	if !p.Accepted {
		return
	}

	state := c.registry.CreateGame(inv.ChannelID, models.HumanPlayer(inv.InviterID), models.HumanPlayer(inv.InviteeID), false)
	c.publishState(state)
	c.pushSessionState(inv.ChannelID)
}

// Move validates and applies one placement for the connected user. The
// caller's symbol claim is checked against the seat they actually hold;
// an illegal move leaves the state untouched and triggers no broadcast.
func (c *Coordinator) Move(ctx context.Context, userID string, p MovePayload) {
	var prevVersion uint64
	next, err := c.registry.UpdateGameThen(p.RoomID, p.GameID,
		func(g models.GameState) (models.GameState, error) {
			prevVersion = g.Version
			if g.SymbolOf(userID) != p.Player {
				return g, nil
			}
			return game.ApplyMove(g, models.Move{Position: p.Position, Player: p.Player}), nil
		},
		func(stored models.GameState) {
			if stored.Version != prevVersion {
				c.publishState(stored)
			}
		})
	if err != nil {
		c.hub.SendToUser(p.RoomID, userID, errorEvent("unknown game"))
		return
	}
	if next.Version == prevVersion {
		return
	}

	c.afterMove(next)
}

// applyAIMove is the deferred AI turn. It re-checks that the game still
// is the one the timer was armed against; a reset or concurrent move in
// between turns it into a no-op. The AI's move goes through the same
// validated path as a human move.
func (c *Coordinator) applyAIMove(channelID, gameID string, expectedVersion uint64) {
	var prevVersion uint64
	next, err := c.registry.UpdateGameThen(channelID, gameID,
		func(g models.GameState) (models.GameState, error) {
			prevVersion = g.Version
			if g.Version != expectedVersion || g.IsOver() {
				return g, nil
			}
			if g.CurrentPlayer != models.SymbolO || !g.Players.O.IsAI() {
				return g, nil
			}
			pos := game.BestMove(g)
			if pos == game.NoMove {
				return g, nil
			}
			return game.ApplyMove(g, models.Move{Position: pos, Player: models.SymbolO}), nil
		},
		func(stored models.GameState) {
			if stored.Version != prevVersion {
				c.publishState(stored)
			}
		})
	if err != nil || next.Version == prevVersion {
		return
	}

	c.afterMove(next)
}

// publishState persists a state and pushes it to the channel. On the
// move paths it runs inside the channel lock, so two back-to-back moves
// can never reach clients out of order.
func (c *Coordinator) publishState(state models.GameState) {
	c.saveToCache(state)
	c.hub.Broadcast(state.RoomID, gameStateEvent(state.ID, &state))
}

// afterMove is the shared post-publish path: either hand the turn to the
// AI or, on a terminal state, record the result and arm the delayed
// cleanup.
func (c *Coordinator) afterMove(state models.GameState) {
	if state.IsOver() {
		go c.recordCompletion(state)
		c.scheduleCleanup(state)
		return
	}

	if state.IsAIGame && state.CurrentPlayer == models.SymbolO && state.Players.O.IsAI() {
		version := state.Version
		time.AfterFunc(c.cfg.AIMoveDelay, func() {
			c.applyAIMove(state.RoomID, state.ID, version)
		})
	}
}

// scheduleCleanup evicts a finished game after the display delay so
// clients can show the end state first. The version check makes the
// timer a no-op if the game was reset meanwhile.
func (c *Coordinator) scheduleCleanup(state models.GameState) {
	version := state.Version
	time.AfterFunc(c.cfg.CleanupDelay, func() {
		if !c.registry.RemoveGameIfVersion(state.RoomID, state.ID, version) {
			return
		}
		c.deleteFromCache(state.RoomID, state.ID)
		c.hub.Broadcast(state.RoomID, gameStateEvent(state.ID, nil))
		c.pushSessionState(state.RoomID)
	})
}

// ResetGame replaces a game with a fresh board. Staying in human-vs-human
// mode keeps the seat assignment; requesting AI mode reseats the caller
// as X against the AI.
func (c *Coordinator) ResetGame(ctx context.Context, p ResetGamePayload) {
	next, err := c.registry.UpdateGameThen(p.ChannelID, p.GameID,
		func(g models.GameState) (models.GameState, error) {
			if !g.HasPlayer(p.UserID) {
				return g, session.ErrGameNotFound
			}

			players := g.Players
			switch {
			case p.IsAIGame:
				players = models.Players{X: models.HumanPlayer(p.UserID), O: models.AIPlayer()}
			case g.IsAIGame:
				// Switching away from the AI leaves the O seat open.
				players = models.Players{X: models.HumanPlayer(p.UserID), O: models.NoPlayer()}
			}

			return models.GameState{
				ID:            g.ID,
				CurrentPlayer: models.SymbolX,
				Players:       players,
				RoomID:        g.RoomID,
				IsAIGame:      p.IsAIGame,
				Version:       g.Version + 1,
			}, nil
		},
		c.publishState)
	if err != nil {
		c.hub.SendToUser(p.ChannelID, p.UserID, errorEvent("unknown game"))
		return
	}

	if next.IsAIGame && next.CurrentPlayer == models.SymbolO && next.Players.O.IsAI() {
		version := next.Version
		time.AfterFunc(c.cfg.AIMoveDelay, func() {
			c.applyAIMove(next.RoomID, next.ID, version)
		})
	}
}

// Disconnect handles a transport-level drop: presence flips, and a
// human-vs-human game whose both sides are now gone is abandoned and
// recorded once. Everything else survives for the reconnect grace window.
func (c *Coordinator) Disconnect(channelID, userID string) {
	if !c.registry.Leave(channelID, userID) {
		return
	}

	for _, g := range c.registry.AbandonedHumanGames(channelID) {
		if !c.registry.RemoveGame(channelID, g.ID) {
			continue
		}
		log.Printf("coordinator: abandoning game %s in channel %s", g.ID, channelID)
		c.finishAbandonedGame(g)
	}

	c.pushSessionState(channelID)
}

// RequestStats pushes the requester's counters to them alone.
func (c *Coordinator) RequestStats(ctx context.Context, p RequestStatsPayload) {
	c.pushUserStats(ctx, p.ChannelID, p.UserID)
}

// finishAbandonedGame records an abandoned game as an incomplete draw and
// clears its transient state.
func (c *Coordinator) finishAbandonedGame(g models.GameState) {
	abandoned := g
	abandoned.IsDraw = true
	abandoned.CurrentPlayer = models.SymbolNone
	go c.recordCompletion(abandoned)
	c.deleteFromCache(g.RoomID, g.ID)
	c.hub.Broadcast(g.RoomID, gameStateEvent(g.ID, nil))
}

// recordCompletion writes the result to the stats store. Failures leave
// gameplay running in a degraded, stats-not-recorded mode.
func (c *Coordinator) recordCompletion(state models.GameState) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usernames := make(map[string]string)
	for _, ref := range []models.PlayerRef{state.Players.X, state.Players.O} {
		if !ref.IsHuman() {
			continue
		}
		if p, ok := c.registry.Participant(state.RoomID, ref.UserID); ok {
			usernames[ref.UserID] = p.Username
		}
	}

	err := c.stats.RecordCompletion(ctx, services.Completion{
		RoomID:    state.RoomID,
		PlayerX:   state.Players.X,
		PlayerO:   state.Players.O,
		Winner:    state.Winner,
		IsDraw:    state.IsDraw,
		IsAIGame:  state.IsAIGame,
		Moves:     state.Moves,
		Usernames: usernames,
	})
	if err != nil {
		log.Printf("coordinator: recording game %s failed, stats not updated: %v", state.ID, err)
	}
}

// pushSessionState sends each connected participant their own view of
// the roster, since the availability list excludes the viewer.
func (c *Coordinator) pushSessionState(channelID string) {
	participants := c.registry.Participants(channelID)
	for _, p := range participants {
		if !p.Connected {
			continue
		}
		c.hub.SendToUser(channelID, p.ID, sessionStateEvent(SessionStatePayload{
			Participants:     participants,
			AvailableForGame: c.registry.ListAvailable(channelID, p.ID),
		}))
	}
}

func (c *Coordinator) pushUserStats(ctx context.Context, channelID, userID string) {
	stats, err := c.stats.GetStats(ctx, userID)
	if err != nil {
		log.Printf("coordinator: stats lookup for %s failed: %v", userID, err)
		return
	}
	c.hub.SendToUser(channelID, userID, ws.Event{Type: EventUserStats, Data: stats})
}

func (c *Coordinator) saveToCache(state models.GameState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.cache.Save(ctx, state); err != nil {
		log.Printf("coordinator: caching game %s failed: %v", state.ID, err)
	}
}

func (c *Coordinator) deleteFromCache(roomID, gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, roomID, gameID); err != nil {
		log.Printf("coordinator: evicting game %s failed: %v", gameID, err)
	}
}
