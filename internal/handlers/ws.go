package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/coordinator"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/ws"
)

type WSHandler struct {
	hub         *ws.Hub
	coordinator *coordinator.Coordinator
}

func NewWSHandler(hub *ws.Hub, coord *coordinator.Coordinator) *WSHandler {
	return &WSHandler{hub: hub, coordinator: coord}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientEvent is the inbound envelope; payloads stay raw until the event
// type is known.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket godoc
// @Summary      WebSocket connection for a channel session
// @Description  Connect to play: send game events, receive session and game state pushes
// @Tags         websocket
// @Param        channelId path string true "Discord channel ID"
// @Param        user_id query string true "Discord user ID"
// @Router       /ws/channel/{channelId} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	channelID := c.Param("channelId")
	userID := c.Query("user_id")
	if channelID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "channel id and user_id are required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.AddConnection(channelID, conn, userID)
	defer func() {
		h.hub.RemoveConnection(channelID, conn)
		// A second tab or device may still be open for this user.
		if !h.hub.HasUserConnection(channelID, userID) {
			h.coordinator.Disconnect(channelID, userID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		h.dispatch(channelID, userID, data)
	}
}

// dispatch routes one inbound event to the coordinator. The channel and
// user identity always come from the connection, never from the payload.
func (h *WSHandler) dispatch(channelID, userID string, data []byte) {
	var evt clientEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Printf("ws: bad event from %s: %v", userID, err)
		return
	}

	ctx := context.Background()

	switch evt.Type {
	case coordinator.EventInitializeSession:
		var p coordinator.InitializeSessionPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			break
		}
		p.ChannelID = channelID
		p.UserID = userID
		h.coordinator.InitializeSession(ctx, p)

	case coordinator.EventSendGameInvite:
		var p coordinator.SendInvitePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			break
		}
		p.ChannelID = channelID
		p.InviterID = userID
		h.coordinator.SendInvite(p)

	case coordinator.EventRespondToInvite:
		var p coordinator.RespondToInvitePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			break
		}
		p.ChannelID = channelID
		p.InviteeID = userID
		h.coordinator.RespondToInvite(ctx, p)

	case coordinator.EventMove:
		var p coordinator.MovePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			break
		}
		p.RoomID = channelID
		h.coordinator.Move(ctx, userID, p)

	case coordinator.EventResetGame:
		var p coordinator.ResetGamePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			break
		}
		p.ChannelID = channelID
		p.UserID = userID
		h.coordinator.ResetGame(ctx, p)

	case coordinator.EventRequestStats:
		h.coordinator.RequestStats(ctx, coordinator.RequestStatsPayload{
			ChannelID: channelID,
			UserID:    userID,
		})

	default:
		log.Printf("ws: unknown event %q from %s", evt.Type, userID)
	}
}
