// Chat HTTP handlers.
//
// This file exposes REST endpoints for buyer↔seller conversations:
//   - POST /products/{id}/rooms   (open, idempotent per buyer)
//   - GET  /rooms                 (all rooms of the current user)
//   - GET  /rooms/{id}            (room projection with last message)
//   - GET  /rooms/{id}/messages   (full history, ETag support)
//   - POST /rooms/{id}/messages   (post, then broadcast)
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/repo"
	"github.com/univmarket/go-market-backend/internal/services"
)

// ChatService defines conversation operations consumed by HTTP handlers.
type ChatService interface {
	OpenRoom(ctx context.Context, productID, buyerID uint) (*domain.ChatRoom, error)
	PostMessage(ctx context.Context, roomID, senderID uint, content string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, roomID, requesterID uint) ([]domain.ChatMessage, error)
	GetRoom(ctx context.Context, roomID, requesterID uint) (*services.RoomView, error)
	ListRoomsForUser(ctx context.Context, userID uint) ([]services.RoomView, error)
}

// PostMessageRequest is the JSON payload for posting a chat message.
type PostMessageRequest struct {
	Content string `json:"content" binding:"required" example:"아직 판매하시나요?"`
}

// OpenRoom godoc
// @ID          openRoom
// @Summary     Open (or return) the chat room on a listing
// @Description Idempotent per (product, buyer); sellers cannot open rooms on their own listings.
// @Tags        Chat
// @Produce     json
// @Param       id path int true "Product ID"
// @Success     200 {object} domain.ChatRoom
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /products/{id}/rooms [post]
func (h *Handlers) OpenRoom(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	productID, okID := pathID(c, "id")
	if !okID {
		return
	}
	r, err := h.chats.OpenRoom(c.Request.Context(), productID, uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListRooms godoc
// @ID          listRooms
// @Summary     List the current user's rooms (buying and selling)
// @Tags        Chat
// @Produce     json
// @Success     200 {array} services.RoomView
// @Router      /rooms [get]
func (h *Handlers) ListRooms(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	views, err := h.chats.ListRoomsForUser(c.Request.Context(), uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, views)
}

// GetRoom godoc
// @ID          getRoom
// @Summary     Get one room projection
// @Tags        Chat
// @Produce     json
// @Param       id path int true "Room ID"
// @Success     200 {object} services.RoomView
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /rooms/{id} [get]
func (h *Handlers) GetRoom(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}
	v, err := h.chats.GetRoom(c.Request.Context(), roomID, uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// ListRoomMessages godoc
// @ID          listRoomMessages
// @Summary     Full ordered message history of a room
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
// @Param       id path int true "Room ID"
// @Success     200 {array} domain.ChatMessage
// @Success     304 {string} string "Not Modified"
// @Failure     403 {object} handlers.ErrorResponse
// @Router      /rooms/{id}/messages [get]
func (h *Handlers) ListRoomMessages(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort). Messages are immutable, so count plus
	// newest timestamp fully identifies the history.
	if h.db != nil {
		count, maxTS, err := repo.RoomMessagesStats(ctx, h.db, roomID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"room:%d:%d:%d"`, roomID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	msgs, err := h.chats.ListMessages(ctx, roomID, uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, msgs)
}

// PostRoomMessage godoc
// @ID          postRoomMessage
// @Summary     Post a message to a room
// @Description Persists first, then broadcasts to connected room subscribers.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       id path int true "Room ID"
// @Param       body body handlers.PostMessageRequest true "Message"
// @Success     201 {object} domain.ChatMessage
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse
// @Router      /rooms/{id}/messages [post]
func (h *Handlers) PostRoomMessage(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	roomID, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.chats.PostMessage(c.Request.Context(), roomID, uid, req.Content)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}
