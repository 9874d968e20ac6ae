// WebSocket upgrade handler.
//
// GET /ws/rooms/{id} upgrades the connection after the same participant
// check the REST endpoints perform. Outbound frames carry room broadcasts;
// inbound text frames are posted as chat messages through the regular
// service path, so persistence and fan-out behave identically to the REST
// route.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/univmarket/go-market-backend/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement is handled by the CORS middleware in front; the
	// upgrade itself accepts any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RoomSocket godoc
// @ID          roomSocket
// @Summary     Subscribe to a room over WebSocket
// @Tags        Chat
// @Param       id path int true "Room ID"
// @Success     101 {string} string "Switching Protocols"
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /ws/rooms/{id} [get]
func (h *Handlers) RoomSocket(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}

	// Participant check before the upgrade, with the REST semantics.
	if _, err := h.chats.GetRoom(c.Request.Context(), roomID, uid); err != nil {
		failFromService(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		log.Debug().Err(err).Uint("room_id", roomID).Msg("ws upgrade failed")
		return
	}

	onInbound := func(content string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, perr := h.chats.PostMessage(ctx, roomID, uid, content); perr != nil {
			log.Debug().Err(perr).Uint("room_id", roomID).Uint("user_id", uid).Msg("ws message rejected")
		}
	}
	ws.Serve(h.hub, conn, roomID, uid, onInbound)
}
