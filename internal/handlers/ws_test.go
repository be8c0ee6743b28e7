package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/coordinator"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/models"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/services"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/session"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/ws"
)

type statsStub struct{}

func (statsStub) RecordCompletion(context.Context, services.Completion) error { return nil }
func (statsStub) GetStats(context.Context, string) (*models.UserStats, error) { return nil, nil }

type cacheStub struct{}

func (cacheStub) Save(context.Context, models.GameState) error { return nil }
func (cacheStub) Delete(context.Context, string, string) error { return nil }

func TestClosingOneOfTwoConnectionsKeepsUserPresent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := session.NewRegistry()
	hub := ws.NewHub()
	coord := coordinator.New(registry, session.NewInviteStore(time.Minute), hub, statsStub{}, cacheStub{}, coordinator.Config{})
	h := NewWSHandler(hub, coord)

	r := gin.New()
	r.GET("/ws/channel/:channelId", h.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/channel/ch?user_id=u1"
	c1, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	c2, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c2.Close()

	// Register presence through the second connection and wait for a
	// push, which proves its read loop is live.
	init := `{"type":"initializeSession","data":{"username":"alice"}}`
	require.NoError(t, c2.WriteMessage(websocket.TextMessage, []byte(init)))
	require.NoError(t, c2.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = c2.ReadMessage()
	require.NoError(t, err)

	require.NoError(t, c1.Close())

	// Dropping one of two connections must not flip presence.
	time.Sleep(100 * time.Millisecond)
	p, ok := registry.Participant("ch", "u1")
	require.True(t, ok)
	require.True(t, p.Connected, "user still holds a live connection")

	require.NoError(t, c2.Close())
	require.Eventually(t, func() bool {
		p, ok := registry.Participant("ch", "u1")
		return ok && !p.Connected
	}, time.Second, 10*time.Millisecond, "last connection gone, user must go disconnected")
}
