// Handler wiring.
//
// Handlers groups the HTTP endpoints of the marketplace API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic; the concrete services are bound at router construction.
package handlers

import (
	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/ws"
)

// Handlers groups HTTP endpoints for products, chat, users, categories,
// verification, and uploads.
type Handlers struct {
	products ProductService
	chats    ChatService
	users    UserService
	cats     CategoryService
	verif    VerificationService
	uploads  UploadService

	// db backs best-effort ETag pre-checks on list endpoints.
	db *gorm.DB
	// hub serves websocket room subscriptions.
	hub *ws.Hub
	// jwtSecret signs login tokens; empty disables token issuance.
	jwtSecret string
}

// Options carries the optional collaborators of Handlers.
type Options struct {
	DB        *gorm.DB
	Hub       *ws.Hub
	JWTSecret string
}

// New constructs a Handlers instance bound to the given services.
func New(
	products ProductService,
	chats ChatService,
	users UserService,
	cats CategoryService,
	verif VerificationService,
	uploads UploadService,
	opts Options,
) *Handlers {
	return &Handlers{
		products:  products,
		chats:     chats,
		users:     users,
		cats:      cats,
		verif:     verif,
		uploads:   uploads,
		db:        opts.DB,
		hub:       opts.Hub,
		jwtSecret: opts.JWTSecret,
	}
}
