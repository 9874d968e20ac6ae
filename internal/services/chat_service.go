// Package services – ChatService
//
// This file implements ChatService, which manages buyer↔seller conversations
// around a product. Rooms are idempotent per (product, buyer): repeated
// first-contact attempts resolve to the same room, with the store's unique
// index settling concurrent creation races. Messages persist inside a
// transaction first; the room broadcast happens strictly afterwards and is
// allowed to fail without affecting the stored message.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/repo"
	"github.com/univmarket/go-market-backend/internal/ws"
)

// ChatService coordinates rooms and messages.
type ChatService struct {
	DB *gorm.DB

	// Events receives post-commit message broadcasts. Optional.
	Events EventPublisher

	// MaxContentRunes caps message content by rune length.
	MaxContentRunes int
}

// NewChatService constructs a ChatService with default limits.
func NewChatService(db *gorm.DB, ev EventPublisher) *ChatService {
	return &ChatService{DB: db, Events: ev, MaxContentRunes: 2000}
}

// OpenRoom returns the room between buyerID and the seller of productID,
// creating it on first contact. A seller cannot open a room on their own
// listing. Losing a concurrent creation race degrades to returning the
// winner's room.
func (s *ChatService) OpenRoom(ctx context.Context, productID, buyerID uint) (*domain.ChatRoom, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "OpenRoom",
		trace.WithAttributes(
			attribute.Int("product.id", int(productID)),
			attribute.Int("buyer.id", int(buyerID)),
		),
	)
	defer span.End()

	p, err := repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.SellerID == buyerID {
		return nil, ErrOwnProduct
	}
	if _, err := repo.GetUser(ctx, s.DB, buyerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if r, err := repo.GetRoomByProductAndBuyer(ctx, s.DB, productID, buyerID); err == nil {
		return r, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	r, err := repo.CreateRoom(ctx, s.DB, productID, buyerID)
	if err != nil {
		// Unique-index violation: another request created the room between
		// our lookup and insert. Re-read the winner.
		if existing, gerr := repo.GetRoomByProductAndBuyer(ctx, s.DB, productID, buyerID); gerr == nil {
			return existing, nil
		}
		return nil, err
	}
	return r, nil
}

// participant reports whether userID may act inside the room: the room's
// buyer or the product's seller.
func participant(r *domain.ChatRoom, userID uint) bool {
	return r.BuyerID == userID || r.Product.SellerID == userID
}

// PostMessage validates and persists one message, then broadcasts it to the
// room channel. Only participants may post.
func (s *ChatService) PostMessage(ctx context.Context, roomID, senderID uint, content string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "PostMessage",
		trace.WithAttributes(
			attribute.Int("room.id", int(roomID)),
			attribute.Int("user.id", int(senderID)),
		),
	)
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrContentTooLong
	}

	r, err := repo.GetRoom(ctx, s.DB, roomID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !participant(r, senderID) {
		return nil, ErrNotParticipant
	}

	var m *domain.ChatMessage
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err = repo.CreateMessage(tx, roomID, senderID, content)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.Events != nil {
		s.Events.Publish(ws.Event{
			Type:      ws.EventMessage,
			RoomID:    roomID,
			SenderID:  senderID,
			MessageID: m.ID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return m, nil
}

// ListMessages returns the full ordered history of a room. Only participants
// may read it.
func (s *ChatService) ListMessages(ctx context.Context, roomID, requesterID uint) ([]domain.ChatMessage, error) {
	r, err := repo.GetRoom(ctx, s.DB, roomID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !participant(r, requesterID) {
		return nil, ErrNotParticipant
	}
	return repo.ListMessages(ctx, s.DB, roomID)
}

// RoomView is a room projection for listings: the product summary, the most
// recent message, and the first product image as thumbnail.
type RoomView struct {
	Room        *domain.ChatRoom    `json:"room"`
	Product     *domain.Product     `json:"product"`
	LastMessage *domain.ChatMessage `json:"last_message,omitempty"`
	Thumbnail   string              `json:"thumbnail,omitempty"`
}

func (s *ChatService) view(ctx context.Context, r *domain.ChatRoom) (*RoomView, error) {
	last, err := repo.LastMessage(ctx, s.DB, r.ID)
	if err != nil {
		return nil, err
	}
	v := &RoomView{Room: r, Product: &r.Product, LastMessage: last}
	if len(r.Product.Images) > 0 {
		v.Thumbnail = r.Product.Images[0].URL
	}
	return v, nil
}

// GetRoom returns the projection of one room. Only participants may see it.
func (s *ChatService) GetRoom(ctx context.Context, roomID, requesterID uint) (*RoomView, error) {
	r, err := repo.GetRoom(ctx, s.DB, roomID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !participant(r, requesterID) {
		return nil, ErrNotParticipant
	}
	return s.view(ctx, r)
}

// ListRoomsForUser returns the projections of every room the user
// participates in, buying or selling, newest first with duplicates removed.
//
// A user can in principle appear on both sides of the union when listings
// they sell received rooms they also opened as a buyer elsewhere; the dedup
// is on room ID.
func (s *ChatService) ListRoomsForUser(ctx context.Context, userID uint) ([]RoomView, error) {
	asBuyer, err := repo.ListRoomsByBuyer(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	asSeller, err := repo.ListRoomsBySeller(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	rooms := append(asBuyer, asSeller...)
	seen := make(map[uint]struct{}, len(rooms))
	out := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		r := &rooms[i]
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		v, verr := s.view(ctx, r)
		if verr != nil {
			log.Warn().Err(verr).Uint("room_id", r.ID).Msg("build room view")
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}
