package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// connFactory hands out real server-side websocket connections backed by
// a throwaway HTTP server.
type connFactory struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newConnFactory(t *testing.T) *connFactory {
	f := &connFactory{conns: make(chan *websocket.Conn, 8)}
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- c
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *connFactory) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return <-f.conns
}

func TestHasUserConnectionSurvivesPartialClose(t *testing.T) {
	f := newConnFactory(t)
	h := NewHub()

	c1 := f.dial(t)
	c2 := f.dial(t)
	h.AddConnection("ch", c1, "u1")
	h.AddConnection("ch", c2, "u1")
	require.True(t, h.HasUserConnection("ch", "u1"))

	h.RemoveConnection("ch", c1)
	require.True(t, h.HasUserConnection("ch", "u1"), "a second device is still connected")

	h.RemoveConnection("ch", c2)
	require.False(t, h.HasUserConnection("ch", "u1"))
	require.False(t, h.HasUserConnection("ch", "u2"))
	require.False(t, h.HasUserConnection("missing", "u1"))
}

func TestSendToUserTargetsOnlyThatUser(t *testing.T) {
	f := newConnFactory(t)
	h := NewHub()

	h.AddConnection("ch", f.dial(t), "u1")
	h.AddConnection("ch", f.dial(t), "u2")

	require.True(t, h.SendToUser("ch", "u1", Event{Type: "ping"}))
	require.False(t, h.SendToUser("ch", "nobody", Event{Type: "ping"}))
	require.False(t, h.SendToUser("missing", "u1", Event{Type: "ping"}))
}
