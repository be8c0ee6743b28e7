package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/game"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
)

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1", Username: "alice"})
	r.Join("ch", models.Participant{ID: "u1", Username: "alice-renamed"})
	r.Join("ch", models.Participant{ID: "u2", Username: "bob"})

	ps := r.Participants("ch")
	require.Len(t, ps, 2)
	require.Equal(t, "u1", ps[0].ID)
	require.Equal(t, "alice-renamed", ps[0].Username)
	require.True(t, ps[0].Connected)
}

func TestLeaveKeepsRosterEntry(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1", Username: "alice"})
	require.True(t, r.Leave("ch", "u1"))

	ps := r.Participants("ch")
	require.Len(t, ps, 1)
	require.False(t, ps[0].Connected)

	require.False(t, r.Leave("ch", "nobody"))
	require.False(t, r.Leave("other-channel", "u1"))
}

func TestListAvailableExcludesSelfBotsAndSeated(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1", Username: "alice"})
	r.Join("ch", models.Participant{ID: "u2", Username: "bob"})
	r.Join("ch", models.Participant{ID: "u3", Username: "carol"})
	r.Join("ch", models.Participant{ID: "u4", Username: "dave"})
	r.Leave("ch", "u4")

	r.CreateGame("ch", models.HumanPlayer("u2"), models.HumanPlayer("u3"), false)

	avail := r.ListAvailable("ch", "u1")
	require.Empty(t, avail, "u2/u3 seated, u4 disconnected, u1 excluded")

	r.Join("ch", models.Participant{ID: "u5", Username: "erin"})
	avail = r.ListAvailable("ch", "u1")
	require.Len(t, avail, 1)
	require.Equal(t, "u5", avail[0].ID)
}

func TestCreateGameUniqueIDs(t *testing.T) {
	r := NewRegistry()
	ids := make(chan string, 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.CreateGame("ch", models.HumanPlayer("x"), models.AIPlayer(), true).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "game ids must be collision free")
		seen[id] = true
	}

	g := r.CreateGame("ch", models.HumanPlayer("x"), models.AIPlayer(), true)
	require.Equal(t, models.SymbolX, g.CurrentPlayer)
	require.True(t, g.IsAIGame)
	require.EqualValues(t, 1, g.Version)
}

func TestConcurrentMovesOnSameCellExactlyOneApplies(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	r.Join("ch", models.Participant{ID: "u2"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.HumanPlayer("u2"), false)

	moves := []models.Move{
		{Position: 4, Player: models.SymbolX},
		{Position: 4, Player: models.SymbolO},
	}

	applied := make([]bool, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, mv := range moves {
		wg.Add(1)
		go func(i int, mv models.Move) {
			defer wg.Done()
			_, errs[i] = r.UpdateGame("ch", created.ID, func(g models.GameState) (models.GameState, error) {
				next := game.ApplyMove(g, mv)
				applied[i] = next.Version != g.Version
				return next, nil
			})
		}(i, mv)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.NotEqual(t, applied[0], applied[1], "exactly one of the two moves must apply")

	final, ok := r.Game("ch", created.ID)
	require.True(t, ok)
	require.EqualValues(t, 2, final.Version)
	require.NotEqual(t, models.SymbolNone, final.Board[4])
}

func TestUpdateGameUnknownTargets(t *testing.T) {
	r := NewRegistry()
	_, err := r.UpdateGame("missing", "g", func(g models.GameState) (models.GameState, error) { return g, nil })
	require.ErrorIs(t, err, ErrChannelNotFound)

	r.Join("ch", models.Participant{ID: "u1"})
	_, err = r.UpdateGame("ch", "missing", func(g models.GameState) (models.GameState, error) { return g, nil })
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestRemoveGameIfVersion(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.AIPlayer(), true)

	require.False(t, r.RemoveGameIfVersion("ch", created.ID, created.Version+1), "stale version must not remove")
	_, ok := r.Game("ch", created.ID)
	require.True(t, ok)

	require.True(t, r.RemoveGameIfVersion("ch", created.ID, created.Version))
	_, ok = r.Game("ch", created.ID)
	require.False(t, ok)
}

func TestAbandonedHumanGames(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	r.Join("ch", models.Participant{ID: "u2"})
	hh := r.CreateGame("ch", models.HumanPlayer("u1"), models.HumanPlayer("u2"), false)
	r.CreateGame("ch", models.HumanPlayer("u1"), models.AIPlayer(), true)

	require.Empty(t, r.AbandonedHumanGames("ch"))

	r.Leave("ch", "u1")
	require.Empty(t, r.AbandonedHumanGames("ch"), "one side still connected")

	r.Leave("ch", "u2")
	abandoned := r.AbandonedHumanGames("ch")
	require.Len(t, abandoned, 1, "AI game must not be reported abandoned")
	require.Equal(t, hh.ID, abandoned[0].ID)
}

func TestSweepDropsDeadChannels(t *testing.T) {
	r := NewRegistry()
	r.Join("dead", models.Participant{ID: "u1"})
	r.Leave("dead", "u1")
	r.Join("alive", models.Participant{ID: "u2"})

	removed, abandoned, expired := r.Sweep(0)
	require.Equal(t, []string{"dead"}, removed)
	require.Empty(t, abandoned)
	require.Empty(t, expired)
	require.NotNil(t, r.Participants("alive"))
	require.Nil(t, r.Participants("dead"))
}

func TestSweepDropsOrphanedAIGames(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.AIPlayer(), true)
	r.Leave("ch", "u1")

	removed, abandoned, expired := r.Sweep(0)
	require.Equal(t, []string{"ch"}, removed, "channel must be reclaimed with its AI game")
	require.Empty(t, abandoned, "an orphaned AI game is never recorded")
	require.Len(t, expired, 1)
	require.Equal(t, created.ID, expired[0].ID)

	_, ok := r.Game("ch", created.ID)
	require.False(t, ok)
}

func TestSweepKeepsAIGameWithinGraceWindow(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.AIPlayer(), true)
	r.Leave("ch", "u1")

	removed, _, expired := r.Sweep(time.Minute)
	require.Empty(t, removed, "the human may still reconnect")
	require.Empty(t, expired)

	g, ok := r.Game("ch", created.ID)
	require.True(t, ok)
	require.Equal(t, created.Version, g.Version)
}

func TestSweepCollectsAbandonedGamesOnce(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	r.Join("ch", models.Participant{ID: "u2"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.HumanPlayer("u2"), false)
	r.Leave("ch", "u1")
	r.Leave("ch", "u2")

	_, abandoned, _ := r.Sweep(0)
	require.Len(t, abandoned, 1)
	require.Equal(t, created.ID, abandoned[0].ID)

	_, abandoned, _ = r.Sweep(0)
	require.Empty(t, abandoned, "an abandoned game is collected exactly once")
}

func TestUpdateGameThenHookSeesVersionsInOrder(t *testing.T) {
	r := NewRegistry()
	r.Join("ch", models.Participant{ID: "u1"})
	created := r.CreateGame("ch", models.HumanPlayer("u1"), models.AIPlayer(), true)

	// The hook runs before the channel lock is released, so concurrent
	// updates must observe strictly increasing versions.
	var seen []uint64
	errs := make([]error, 32)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.UpdateGameThen("ch", created.ID,
				func(g models.GameState) (models.GameState, error) {
					g.Version++
					return g, nil
				},
				func(stored models.GameState) {
					seen = append(seen, stored.Version)
				})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, seen, 32)
	for k := 1; k < len(seen); k++ {
		require.Greater(t, seen[k], seen[k-1], "hook invocations must be serialized in version order")
	}
}
