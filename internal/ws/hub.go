// Package ws broadcasts chat-room events to connected WebSocket clients.
//
// The Hub is a single goroutine owning the room → clients index; all
// membership changes and fan-out go through its channels, so the index needs
// no locking. Delivery is best effort: persistence is the source of truth
// and a slow client is disconnected rather than allowed to stall a room.
package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Event is one payload fanned out to every subscriber of a room.
type Event struct {
	Type      string    `json:"type"`
	RoomID    uint      `json:"room_id"`
	SenderID  uint      `json:"sender_id,omitempty"`
	MessageID uint      `json:"message_id,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Event types carried on the wire.
const (
	EventMessage         = "message"
	EventProductReserved = "product_reserved"
	EventProductSold     = "product_sold"
)

type subscription struct {
	roomID uint
	client *Client
}

// Hub routes events to room subscribers.
type Hub struct {
	register   chan subscription
	unregister chan subscription
	publish    chan Event

	// rooms is touched only by run.
	rooms map[uint]map[*Client]struct{}
}

// NewHub builds an idle Hub; callers start it with Run.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan subscription),
		unregister: make(chan subscription),
		publish:    make(chan Event, 256),
		rooms:      make(map[uint]map[*Client]struct{}),
	}
}

// Run processes membership and publish traffic until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
			}
			h.rooms = map[uint]map[*Client]struct{}{}
			return
		case sub := <-h.register:
			clients, ok := h.rooms[sub.roomID]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[sub.roomID] = clients
			}
			clients[sub.client] = struct{}{}
		case sub := <-h.unregister:
			if clients, ok := h.rooms[sub.roomID]; ok {
				if _, member := clients[sub.client]; member {
					delete(clients, sub.client)
					close(sub.client.send)
					if len(clients) == 0 {
						delete(h.rooms, sub.roomID)
					}
				}
			}
		case ev := <-h.publish:
			for c := range h.rooms[ev.RoomID] {
				select {
				case c.send <- ev:
				default:
					// Back-pressured client: cut it loose so the room
					// keeps flowing. It can reconnect and re-sync from
					// the message history endpoint.
					delete(h.rooms[ev.RoomID], c)
					close(c.send)
					log.Warn().Uint("room_id", ev.RoomID).Uint("user_id", c.userID).Msg("ws send buffer full, dropping client")
				}
			}
		}
	}
}

// Publish fans ev out to the subscribers of ev.RoomID. Non-blocking; events
// are dropped with a warning if the hub itself is saturated.
func (h *Hub) Publish(ev Event) {
	select {
	case h.publish <- ev:
	default:
		log.Warn().Uint("room_id", ev.RoomID).Str("type", ev.Type).Msg("ws hub saturated, dropping event")
	}
}
