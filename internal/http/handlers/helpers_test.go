package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/services"
	"github.com/univmarket/go-market-backend/internal/storage"
)

// ---------- test DB ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Category{}, &domain.Product{}, &domain.Image{},
		&domain.ChatRoom{}, &domain.ChatMessage{}, &domain.UnivVerification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// asUser injects a principal the way the auth middleware would.
func asUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Next()
	}
}

func seedUser(t *testing.T, db *gorm.DB, nickname string) *domain.User {
	t.Helper()
	u := &domain.User{
		OAuthProvider: "kakao",
		OAuthID:       uuid.NewString(),
		Email:         nickname + "@example.com",
		Nickname:      nickname,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID, categoryID uint, title string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Title:       title,
		Description: "desc",
		Price:       1000,
		Status:      domain.StatusWaiting,
		SellerID:    sellerID,
		CategoryID:  categoryID,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// ---------- flexible service stubs ----------

type stubProducts struct {
	create   func(context.Context, uint, services.CreateProductInput) (*domain.Product, error)
	get      func(context.Context, uint) (*domain.Product, error)
	reserve  func(context.Context, uint, uint) (*domain.Product, error)
	complete func(context.Context, uint) (*domain.Product, error)
	del      func(context.Context, uint, uint) error
	addImgs  func(context.Context, uint, uint, []string) ([]domain.Image, error)
	delImg   func(context.Context, uint, uint) error
	list     func(context.Context, int, int) (*services.ProductPage, error)
	search   func(context.Context, string, int, int) (*services.ProductPage, error)
	byCat    func(context.Context, uint, int, int) (*services.ProductPage, error)
}

func emptyPage(page, perPage int) *services.ProductPage {
	return &services.ProductPage{Items: []domain.Product{}, Page: page, PerPage: perPage}
}

func (s stubProducts) Create(ctx context.Context, sellerID uint, in services.CreateProductInput) (*domain.Product, error) {
	if s.create != nil {
		return s.create(ctx, sellerID, in)
	}
	return &domain.Product{ID: 1, Title: in.Title, SellerID: sellerID}, nil
}

func (s stubProducts) Get(ctx context.Context, id uint) (*domain.Product, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Product{ID: id}, nil
}

func (s stubProducts) Reserve(ctx context.Context, productID, buyerID uint) (*domain.Product, error) {
	if s.reserve != nil {
		return s.reserve(ctx, productID, buyerID)
	}
	return &domain.Product{ID: productID, Status: domain.StatusReserved}, nil
}

func (s stubProducts) Complete(ctx context.Context, productID uint) (*domain.Product, error) {
	if s.complete != nil {
		return s.complete(ctx, productID)
	}
	return &domain.Product{ID: productID, Status: domain.StatusCompleted}, nil
}

func (s stubProducts) Delete(ctx context.Context, productID, requesterID uint) error {
	if s.del != nil {
		return s.del(ctx, productID, requesterID)
	}
	return nil
}

func (s stubProducts) AddImages(ctx context.Context, productID, requesterID uint, urls []string) ([]domain.Image, error) {
	if s.addImgs != nil {
		return s.addImgs(ctx, productID, requesterID, urls)
	}
	return nil, nil
}

func (s stubProducts) DeleteImage(ctx context.Context, imageID, requesterID uint) error {
	if s.delImg != nil {
		return s.delImg(ctx, imageID, requesterID)
	}
	return nil
}

func (s stubProducts) List(ctx context.Context, page, perPage int) (*services.ProductPage, error) {
	if s.list != nil {
		return s.list(ctx, page, perPage)
	}
	return emptyPage(page, perPage), nil
}

func (s stubProducts) Search(ctx context.Context, keyword string, page, perPage int) (*services.ProductPage, error) {
	if s.search != nil {
		return s.search(ctx, keyword, page, perPage)
	}
	return emptyPage(page, perPage), nil
}

func (s stubProducts) ByCategory(ctx context.Context, categoryID uint, page, perPage int) (*services.ProductPage, error) {
	if s.byCat != nil {
		return s.byCat(ctx, categoryID, page, perPage)
	}
	return emptyPage(page, perPage), nil
}

type stubChats struct {
	open     func(context.Context, uint, uint) (*domain.ChatRoom, error)
	post     func(context.Context, uint, uint, string) (*domain.ChatMessage, error)
	listMsgs func(context.Context, uint, uint) ([]domain.ChatMessage, error)
	getRoom  func(context.Context, uint, uint) (*services.RoomView, error)
	listRms  func(context.Context, uint) ([]services.RoomView, error)
}

func (s stubChats) OpenRoom(ctx context.Context, productID, buyerID uint) (*domain.ChatRoom, error) {
	if s.open != nil {
		return s.open(ctx, productID, buyerID)
	}
	return &domain.ChatRoom{ID: 1, ProductID: productID, BuyerID: buyerID}, nil
}

func (s stubChats) PostMessage(ctx context.Context, roomID, senderID uint, content string) (*domain.ChatMessage, error) {
	if s.post != nil {
		return s.post(ctx, roomID, senderID, content)
	}
	return &domain.ChatMessage{ID: 1, RoomID: roomID, SenderID: senderID, Content: content}, nil
}

func (s stubChats) ListMessages(ctx context.Context, roomID, requesterID uint) ([]domain.ChatMessage, error) {
	if s.listMsgs != nil {
		return s.listMsgs(ctx, roomID, requesterID)
	}
	return nil, nil
}

func (s stubChats) GetRoom(ctx context.Context, roomID, requesterID uint) (*services.RoomView, error) {
	if s.getRoom != nil {
		return s.getRoom(ctx, roomID, requesterID)
	}
	return &services.RoomView{Room: &domain.ChatRoom{ID: roomID}}, nil
}

func (s stubChats) ListRoomsForUser(ctx context.Context, userID uint) ([]services.RoomView, error) {
	if s.listRms != nil {
		return s.listRms(ctx, userID)
	}
	return nil, nil
}

type stubUsers struct {
	upsert func(context.Context, string, string, string, string, string) (*domain.User, error)
	get    func(context.Context, uint) (*domain.User, error)
}

func (s stubUsers) UpsertOAuth(ctx context.Context, provider, oauthID, email, nickname, profileImage string) (*domain.User, error) {
	if s.upsert != nil {
		return s.upsert(ctx, provider, oauthID, email, nickname, profileImage)
	}
	return &domain.User{ID: 1, OAuthProvider: provider, OAuthID: oauthID, Email: email, Nickname: nickname}, nil
}

func (s stubUsers) Get(ctx context.Context, id uint) (*domain.User, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.User{ID: id}, nil
}

type stubCats struct {
	list   func(context.Context) ([]domain.Category, error)
	create func(context.Context, string) (*domain.Category, error)
}

func (s stubCats) List(ctx context.Context) ([]domain.Category, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, nil
}

func (s stubCats) Create(ctx context.Context, name string) (*domain.Category, error) {
	if s.create != nil {
		return s.create(ctx, name)
	}
	return &domain.Category{ID: 1, Name: name}, nil
}

type stubVerif struct {
	request func(context.Context, uint, string) (*domain.UnivVerification, error)
	confirm func(context.Context, string, string) (*domain.User, error)
}

func (s stubVerif) RequestCode(ctx context.Context, userID uint, email string) (*domain.UnivVerification, error) {
	if s.request != nil {
		return s.request(ctx, userID, email)
	}
	return &domain.UnivVerification{ID: 1, UserID: userID, Email: email, Code: "123456"}, nil
}

func (s stubVerif) Confirm(ctx context.Context, email, code string) (*domain.User, error) {
	if s.confirm != nil {
		return s.confirm(ctx, email, code)
	}
	return &domain.User{ID: 1, Email: email, Verified: true}, nil
}

type stubUploads struct {
	presign func(uint, string, string) (*storage.UploadGrant, error)
}

func (s stubUploads) PresignUpload(userID uint, fileName, contentType string) (*storage.UploadGrant, error) {
	if s.presign != nil {
		return s.presign(userID, fileName, contentType)
	}
	return &storage.UploadGrant{
		UploadURL: "https://bucket.s3.amazonaws.com/upload?sig=x",
		FileURL:   "https://bucket.s3.amazonaws.com/images/1/x_" + fileName,
		Key:       "images/1/x_" + fileName,
	}, nil
}

// newStubHandlers wires Handlers entirely from stubs; tests override the
// stub they exercise.
func newStubHandlers(opts Options) *Handlers {
	return New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{}, stubVerif{}, stubUploads{}, opts)
}

// jsonReq builds a request with a JSON body.
func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
