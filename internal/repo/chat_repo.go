// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for ChatRoom and
// ChatMessage.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// The (product_id, buyer_id) pair on chat_rooms carries a unique index, so
// CreateRoom can fail with a constraint violation when two first-contact
// requests race; the service layer resolves that by re-reading the winner.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// CreateRoom inserts a new chat room for (productID, buyerID). A duplicate
// insert violates the unique index and surfaces the store's error; callers
// should fall back to GetRoomByProductAndBuyer.
func CreateRoom(ctx context.Context, db *gorm.DB, productID, buyerID uint) (*domain.ChatRoom, error) {
	r := &domain.ChatRoom{
		ProductID: productID,
		BuyerID:   buyerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRoom fetches a room by ID with its product (and the product's seller
// reference) preloaded, or ErrNotFound if missing.
func GetRoom(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		First(&r, id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoomByProductAndBuyer fetches the unique room for (productID, buyerID),
// or ErrNotFound if no contact has happened yet.
func GetRoomByProductAndBuyer(ctx context.Context, db *gorm.DB, productID, buyerID uint) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ?", productID, buyerID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRoomsByBuyer returns all rooms where userID is the buyer, newest first.
func ListRoomsByBuyer(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	err := db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		Where("buyer_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListRoomsBySeller returns all rooms whose product is sold by userID,
// newest first. The seller is derived through the product, never stored on
// the room.
func ListRoomsBySeller(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	err := db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		Joins("JOIN products ON products.id = chat_rooms.product_id").
		Where("products.seller_id = ?", userID).
		Order("chat_rooms.created_at desc").
		Find(&out).Error
	return out, err
}

// ListRoomsByProduct returns all rooms open on one product. Used to fan
// lifecycle events out to every interested conversation.
func ListRoomsByProduct(ctx context.Context, db *gorm.DB, productID uint) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateMessage appends an immutable message row to a room. It takes the
// transaction handle directly; message persistence always happens inside
// the posting transaction.
func CreateMessage(tx *gorm.DB, roomID, senderID uint, content string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the full ordered history of a room, oldest first.
func ListMessages(ctx context.Context, db *gorm.DB, roomID uint) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// LastMessage returns the most recent message of a room, or nil when the
// room has no messages yet.
func LastMessage(ctx context.Context, db *gorm.DB, roomID uint) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at desc, id desc").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
