package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/ws"
)

// newSvcDB opens a throwaway in-memory database with the full schema.
func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Product{},
		&domain.Image{},
		&domain.ChatRoom{},
		&domain.ChatMessage{},
		&domain.UnivVerification{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v *T) *T {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
	return v
}

func seedSvcUser(t *testing.T, db *gorm.DB, nick string) *domain.User {
	return mustCreate(t, db, &domain.User{
		Email:    nick + "@snu.ac.kr",
		Nickname: nick,
	})
}

func seedSvcCategory(t *testing.T, db *gorm.DB, name string) *domain.Category {
	return mustCreate(t, db, &domain.Category{Name: name})
}

func seedSvcProduct(t *testing.T, db *gorm.DB, sellerID, catID uint, status domain.ProductStatus) *domain.Product {
	return mustCreate(t, db, &domain.Product{
		Title:       "Linear Algebra and Its Applications",
		Description: "4th edition, light highlighting",
		Price:       12000,
		Status:      status,
		CategoryID:  catID,
		SellerID:    sellerID,
	})
}

// ----- collaborator fakes -----

type fakeNotify struct {
	mu       sync.Mutex
	reserved []uint // product IDs
	complete []uint
	codes    []string
}

func (f *fakeNotify) ReservationNotice(p *domain.Product, _, _ *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserved = append(f.reserved, p.ID)
}

func (f *fakeNotify) TransactionCompleteNotice(p *domain.Product, _, _ *domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.complete = append(f.complete, p.ID)
}

func (f *fakeNotify) VerificationCode(_, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []ws.Event
}

func (f *fakeEvents) Publish(ev ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeEvents) all() []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ws.Event, len(f.events))
	copy(out, f.events)
	return out
}

type fakeRemover struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeRemover) DeleteByURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return f.err
}
