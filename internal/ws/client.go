package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize caps frames read from the peer.
	maxInboundSize = 16 << 10

	sendBuffer = 32
)

// InboundFunc handles one text frame sent by the peer, typically by posting
// it as a chat message. Errors are the handler's to report; the pump keeps
// reading.
type InboundFunc func(content string)

// Client is one WebSocket subscriber attached to a single room.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	roomID  uint
	userID  uint
	send    chan Event
	inbound InboundFunc
}

// Serve attaches conn to the hub as a subscriber of roomID and runs its
// pumps. Inbound text frames are handed to onInbound when non-nil. It
// returns when the connection closes.
func Serve(hub *Hub, conn *websocket.Conn, roomID, userID uint, onInbound InboundFunc) {
	c := &Client{
		hub:     hub,
		conn:    conn,
		roomID:  roomID,
		userID:  userID,
		send:    make(chan Event, sendBuffer),
		inbound: onInbound,
	}
	hub.register <- subscription{roomID: roomID, client: c}

	go c.writePump()
	c.readPump()
}

// readPump drains the connection, forwarding text frames and answering
// pings, and detects the close.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- subscription{roomID: c.roomID, client: c}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint("room_id", c.roomID).Msg("ws read closed")
			}
			return
		}
		if kind == websocket.TextMessage && c.inbound != nil && len(data) > 0 {
			c.inbound(string(data))
		}
	}
}

// writePump serializes queued events to the connection and keeps it alive
// with pings. A closed send channel means the hub evicted the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
