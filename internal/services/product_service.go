// Package services – ProductService
//
// This file implements ProductService, the component that owns the product
// lifecycle state machine (WAITING → RESERVED → COMPLETED). It validates
// listing input, enforces seller-only mutations, performs every multi-write
// inside a transaction, and dispatches email notifications and room events
// strictly after commit so a delivery failure can never poison a completed
// state change.
//
// Observability: mutating methods are OpenTelemetry-instrumented; spans carry
// product and user identifiers.
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

// Notifications is the after-commit email surface. *notify.Dispatcher
// satisfies it; deliveries are queued and never block the caller.
type Notifications interface {
	ReservationNotice(p *domain.Product, seller, buyer *domain.User)
	TransactionCompleteNotice(p *domain.Product, seller, buyer *domain.User)
}

// EventPublisher fans an event out to the subscribers of its room.
// *ws.Hub satisfies it.
type EventPublisher interface {
	Publish(ev ws.Event)
}

// ObjectRemover deletes stored image objects. *storage.ImageStore satisfies
// it.
type ObjectRemover interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

// CreateProductInput carries the fields of a new listing.
type CreateProductInput struct {
	Title       string
	Description string
	Price       int
	CategoryID  uint
	ImageURLs   []string
}

// ProductService coordinates listings and their lifecycle transitions.
type ProductService struct {
	DB *gorm.DB

	// Notify receives post-commit lifecycle emails. Optional.
	Notify Notifications
	// Events receives post-commit room broadcasts. Optional.
	Events EventPublisher
	// Objects purges image objects when listings or images are removed.
	// Optional; when nil only the rows are deleted.
	Objects ObjectRemover

	// TitleMaxRunes caps listing titles by rune length.
	TitleMaxRunes int
}

// NewProductService constructs a ProductService with default limits.
func NewProductService(db *gorm.DB, n Notifications, ev EventPublisher, obj ObjectRemover) *ProductService {
	return &ProductService{
		DB:            db,
		Notify:        n,
		Events:        ev,
		Objects:       obj,
		TitleMaxRunes: 128,
	}
}

// Create validates in and inserts a WAITING listing with its image rows.
func (s *ProductService) Create(ctx context.Context, sellerID uint, in CreateProductInput) (*domain.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("seller.id", int(sellerID))),
	)
	defer span.End()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if s.TitleMaxRunes > 0 && utf8.RuneCountInString(title) > s.TitleMaxRunes {
		return nil, ErrTitleTooLong
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, ErrEmptyDescription
	}
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}

	if _, err := repo.GetUser(ctx, s.DB, sellerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := repo.GetCategory(ctx, s.DB, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	p := &domain.Product{
		Title:       title,
		Description: in.Description,
		Price:       in.Price,
		Status:      domain.StatusWaiting,
		CategoryID:  in.CategoryID,
		SellerID:    sellerID,
	}
	for _, u := range in.ImageURLs {
		p.Images = append(p.Images, domain.Image{URL: u})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := repo.CreateProduct(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns one product with its images.
func (s *ProductService) Get(ctx context.Context, id uint) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Reserve binds buyerID to the product and moves it to RESERVED.
//
// Reserving a product that is already RESERVED succeeds and rebinds the
// buyer; only COMPLETED rejects the transition. After commit the seller is
// emailed and every chat room of the product receives a reserved event.
func (s *ProductService) Reserve(ctx context.Context, productID, buyerID uint) (*domain.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Reserve",
		trace.WithAttributes(
			attribute.Int("product.id", int(productID)),
			attribute.Int("buyer.id", int(buyerID)),
		),
	)
	defer span.End()

	buyer, err := repo.GetUser(ctx, s.DB, buyerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var p *domain.Product
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err = repo.GetProduct(ctx, tx, productID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if p.Status == domain.StatusCompleted {
			return ErrProductCompleted
		}
		p.Status = domain.StatusReserved
		p.BuyerID = &buyer.ID
		return repo.SaveProduct(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.afterReserve(ctx, p, buyer)
	return p, nil
}

func (s *ProductService) afterReserve(ctx context.Context, p *domain.Product, buyer *domain.User) {
	seller, err := repo.GetUser(ctx, s.DB, p.SellerID)
	if err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("load seller for reservation notice")
		return
	}
	if s.Notify != nil {
		s.Notify.ReservationNotice(p, seller, buyer)
	}
	s.publishToProductRooms(ctx, p, ws.EventProductReserved)
}

// Complete closes the transaction on a RESERVED product. Any other state is
// rejected. After commit both participants are emailed and the product's
// rooms receive a sold event.
func (s *ProductService) Complete(ctx context.Context, productID uint) (*domain.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithAttributes(attribute.Int("product.id", int(productID))),
	)
	defer span.End()

	var p *domain.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = repo.GetProduct(ctx, tx, productID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if p.Status != domain.StatusReserved {
			return ErrProductNotReserved
		}
		p.Status = domain.StatusCompleted
		return repo.SaveProduct(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.afterComplete(ctx, p)
	return p, nil
}

func (s *ProductService) afterComplete(ctx context.Context, p *domain.Product) {
	seller, serr := repo.GetUser(ctx, s.DB, p.SellerID)
	if serr != nil {
		log.Error().Err(serr).Uint("product_id", p.ID).Msg("load seller for completion notice")
	}
	var buyer *domain.User
	if p.BuyerID != nil {
		var berr error
		buyer, berr = repo.GetUser(ctx, s.DB, *p.BuyerID)
		if berr != nil {
			log.Error().Err(berr).Uint("product_id", p.ID).Msg("load buyer for completion notice")
		}
	}
	if s.Notify != nil && seller != nil && buyer != nil {
		s.Notify.TransactionCompleteNotice(p, seller, buyer)
	}
	s.publishToProductRooms(ctx, p, ws.EventProductSold)
}

// publishToProductRooms emits a lifecycle event into every chat room open on
// the product. Best effort.
func (s *ProductService) publishToProductRooms(ctx context.Context, p *domain.Product, eventType string) {
	if s.Events == nil {
		return
	}
	rooms, err := repo.ListRoomsByProduct(ctx, s.DB, p.ID)
	if err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("list rooms for lifecycle event")
		return
	}
	for _, r := range rooms {
		s.Events.Publish(ws.Event{Type: eventType, RoomID: r.ID})
	}
}

// Delete removes a listing, its image rows, and (best effort) the stored
// objects. Only the seller may delete; chat rooms on the product cascade
// away with it.
func (s *ProductService) Delete(ctx context.Context, productID, requesterID uint) error {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.Int("product.id", int(productID)),
			attribute.Int("user.id", int(requesterID)),
		),
	)
	defer span.End()

	p, err := repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if p.SellerID != requesterID {
		return ErrNotSeller
	}

	s.purgeObjects(ctx, p.Images)

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteProductImages(ctx, tx, p.ID); err != nil {
			return err
		}
		return repo.DeleteProduct(ctx, tx, p)
	})
}

func (s *ProductService) purgeObjects(ctx context.Context, images []domain.Image) {
	if s.Objects == nil {
		return
	}
	for _, img := range images {
		if err := s.Objects.DeleteByURL(ctx, img.URL); err != nil {
			log.Warn().Err(err).Str("url", img.URL).Msg("purge image object")
		}
	}
}

// AddImages appends image rows to an existing listing. Seller only.
func (s *ProductService) AddImages(ctx context.Context, productID, requesterID uint, urls []string) ([]domain.Image, error) {
	p, err := repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.SellerID != requesterID {
		return nil, ErrNotSeller
	}

	var imgs []domain.Image
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		imgs, err = repo.AddImages(ctx, tx, p.ID, urls)
		return err
	})
	if err != nil {
		return nil, err
	}
	return imgs, nil
}

// DeleteImage removes one image row and its stored object. Seller only.
func (s *ProductService) DeleteImage(ctx context.Context, imageID, requesterID uint) error {
	img, err := repo.GetImage(ctx, s.DB, imageID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	p, err := repo.GetProduct(ctx, s.DB, img.ProductID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if p.SellerID != requesterID {
		return ErrNotSeller
	}

	s.purgeObjects(ctx, []domain.Image{*img})
	return repo.DeleteImage(ctx, s.DB, img)
}

// ProductPage is one page of listings plus its pagination metadata.
type ProductPage struct {
	Items   []domain.Product
	Total   int64
	Page    int
	PerPage int
}

// Pages returns the number of pages in the result set.
func (p ProductPage) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// HasNext reports whether another page follows this one.
func (p ProductPage) HasNext() bool { return p.Page < p.Pages() }

func normalizePage(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	return page, perPage, (page - 1) * perPage
}

// List returns a page of listings, newest first.
func (s *ProductService) List(ctx context.Context, page, perPage int) (*ProductPage, error) {
	page, perPage, offset := normalizePage(page, perPage)

	total, err := repo.CountProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := &ProductPage{Items: []domain.Product{}, Total: total, Page: page, PerPage: perPage}
	if total == 0 {
		return out, nil
	}
	out.Items, err = repo.ListProductsPage(ctx, s.DB, offset, perPage)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search returns listings whose title or description contains keyword as an
// exact, case-sensitive substring, newest first.
func (s *ProductService) Search(ctx context.Context, keyword string, page, perPage int) (*ProductPage, error) {
	page, perPage, offset := normalizePage(page, perPage)

	total, err := repo.CountSearchProducts(ctx, s.DB, keyword)
	if err != nil {
		return nil, err
	}
	out := &ProductPage{Items: []domain.Product{}, Total: total, Page: page, PerPage: perPage}
	if total == 0 {
		return out, nil
	}
	out.Items, err = repo.SearchProductsPage(ctx, s.DB, keyword, offset, perPage)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ByCategory returns a page of listings in one category, newest first.
func (s *ProductService) ByCategory(ctx context.Context, categoryID uint, page, perPage int) (*ProductPage, error) {
	if _, err := repo.GetCategory(ctx, s.DB, categoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	page, perPage, offset := normalizePage(page, perPage)
	total, err := repo.CountProductsByCategory(ctx, s.DB, categoryID)
	if err != nil {
		return nil, err
	}
	out := &ProductPage{Items: []domain.Product{}, Total: total, Page: page, PerPage: perPage}
	if total == 0 {
		return out, nil
	}
	out.Items, err = repo.ListProductsByCategoryPage(ctx, s.DB, categoryID, offset, perPage)
	if err != nil {
		return nil, err
	}
	return out, nil
}
