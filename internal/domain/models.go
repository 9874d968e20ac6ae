// Package domain defines the persistence models for users, categories,
// products, images, chat rooms, chat messages, and university verification
// records. These types are mapped with GORM and form the core data layer of
// the marketplace application.
package domain

import (
	"time"
)

// ProductStatus is the lifecycle state of a product listing.
//
// A product starts in StatusWaiting, moves to StatusReserved when a buyer
// reserves it, and ends in StatusCompleted once the transaction closes.
// Status never regresses; StatusCompleted is terminal.
type ProductStatus string

const (
	// StatusWaiting means the product is listed and has no buyer.
	StatusWaiting ProductStatus = "WAITING"
	// StatusReserved means a buyer is bound to the product.
	StatusReserved ProductStatus = "RESERVED"
	// StatusCompleted means the transaction is closed. Terminal.
	StatusCompleted ProductStatus = "COMPLETED"
)

// Valid reports whether s is one of the three known lifecycle states.
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusReserved, StatusCompleted:
		return true
	}
	return false
}

// User represents an account on the marketplace. Accounts are created through
// OAuth login and gain access to listing/chat features; university membership
// is proven separately through email verification.
//
// Invariant: Verified == true implies UniversityName is non-empty.
type User struct {
	ID             uint      `json:"id"              gorm:"primaryKey;autoIncrement"`
	Email          string    `json:"email"           gorm:"type:varchar(255);not null;index"`
	Nickname       string    `json:"nickname"        gorm:"type:varchar(64);not null"`
	ProfileImage   string    `json:"profile_image,omitempty"   gorm:"type:varchar(512)"`
	UniversityName string    `json:"university_name,omitempty" gorm:"type:varchar(128)"`
	Verified       bool      `json:"verified"        gorm:"not null;default:false"`
	OAuthProvider  string    `json:"oauth_provider,omitempty"  gorm:"column:oauth_provider;type:varchar(32);index:idx_oauth,priority:1"`
	OAuthID        string    `json:"oauth_id,omitempty"        gorm:"column:oauth_id;type:varchar(128);index:idx_oauth,priority:2"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Category is a flat product category. No hierarchy.
type Category struct {
	ID   uint   `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Product is a secondhand listing. It owns its Images exclusively; deleting a
// product removes its image rows (and the backing objects, handled by the
// service layer).
//
// Invariants:
//   - BuyerID is nil iff Status == StatusWaiting.
//   - SellerID is immutable after creation.
type Product struct {
	ID          uint          `json:"id"          gorm:"primaryKey;autoIncrement"`
	Title       string        `json:"title"       gorm:"type:varchar(128);not null"`
	Description string        `json:"description" gorm:"type:text;not null"`
	Price       int           `json:"price"       gorm:"not null;check:price >= 0"`
	Status      ProductStatus `json:"status"      gorm:"type:varchar(16);not null;index;check:status IN ('WAITING','RESERVED','COMPLETED')"`
	CategoryID  uint          `json:"category_id" gorm:"not null;index"`
	SellerID    uint          `json:"seller_id"   gorm:"not null;index"`
	BuyerID     *uint         `json:"buyer_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"  gorm:"index"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID"`
	Seller   User     `json:"-" gorm:"foreignKey:SellerID;references:ID"`
	Buyer    *User    `json:"-" gorm:"foreignKey:BuyerID;references:ID"`

	// Images are owned by the product and cascade-deleted with it.
	Images []Image `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Image is an uploaded product photo. The URL points at the object store;
// the row is owned exclusively by one product.
type Image struct {
	ID        uint   `json:"id"         gorm:"primaryKey;autoIncrement"`
	URL       string `json:"url"        gorm:"type:varchar(512);not null"`
	ProductID uint   `json:"product_id" gorm:"not null;index"`
}

// TableName returns the database table name for Image.
func (Image) TableName() string { return "images" }

// ChatRoom is the conversation between one prospective buyer and the seller
// of one product. The seller is derived through Product.SellerID and never
// stored on the room.
//
// The (ProductID, BuyerID) pair is unique: repeated first-contact attempts
// from the same buyer resolve to the same room, enforced at the store layer
// so concurrent creation cannot produce duplicates.
type ChatRoom struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:ux_room_product_buyer,priority:1"`
	BuyerID   uint      `json:"buyer_id"   gorm:"not null;uniqueIndex:ux_room_product_buyer,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Buyer   User    `json:"-" gorm:"foreignKey:BuyerID;references:ID"`

	// Messages are owned by the room and cascade-deleted with it.
	Messages []ChatMessage `json:"-" gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatRoom.
func (ChatRoom) TableName() string { return "chat_rooms" }

// ChatMessage is a single utterance within a room. Immutable once created.
type ChatMessage struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	RoomID    uint      `json:"room_id"    gorm:"not null;index:idx_room_msgs,priority:1"`
	SenderID  uint      `json:"sender_id"  gorm:"not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_room_msgs,priority:2"`

	Room   ChatRoom `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sender User     `json:"-" gorm:"foreignKey:SenderID;references:ID"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// UnivVerification ties a university email and a 6-digit code to a user with
// an expiry. A user may hold several outstanding unexpired codes; issuing a
// new code never invalidates earlier ones.
type UnivVerification struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;index:idx_verif_email_code,priority:1"`
	Code      string    `json:"-"          gorm:"type:varchar(6);not null;index:idx_verif_email_code,priority:2"`
	Verified  bool      `json:"verified"   gorm:"not null;default:false"`
	UserID    uint      `json:"user_id"    gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for UnivVerification.
func (UnivVerification) TableName() string { return "univ_verifications" }
