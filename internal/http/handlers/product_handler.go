// Product HTTP handlers.
//
// This file exposes REST endpoints for product listings and their lifecycle:
//   - POST   /products                (create listing)
//   - GET    /products               (list, paginated, ETag support)
//   - GET    /products/search        (case-sensitive substring search)
//   - GET    /products/{id}          (detail)
//   - DELETE /products/{id}          (seller only)
//   - POST   /products/{id}/reserve  (buyer reserves)
//   - POST   /products/{id}/complete (close the transaction)
//   - POST   /products/{id}/images   (seller adds images)
//   - DELETE /images/{id}            (seller removes one image)
//   - GET    /categories/{id}/products
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/http/middleware"
	"github.com/univmarket/go-market-backend/internal/repo"
	"github.com/univmarket/go-market-backend/internal/services"
	"github.com/univmarket/go-market-backend/internal/utils"
)

// ProductService defines listing lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ProductService interface {
	Create(ctx context.Context, sellerID uint, in services.CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uint) (*domain.Product, error)
	Reserve(ctx context.Context, productID, buyerID uint) (*domain.Product, error)
	Complete(ctx context.Context, productID uint) (*domain.Product, error)
	Delete(ctx context.Context, productID, requesterID uint) error
	AddImages(ctx context.Context, productID, requesterID uint, urls []string) ([]domain.Image, error)
	DeleteImage(ctx context.Context, imageID, requesterID uint) error
	List(ctx context.Context, page, perPage int) (*services.ProductPage, error)
	Search(ctx context.Context, keyword string, page, perPage int) (*services.ProductPage, error)
	ByCategory(ctx context.Context, categoryID uint, page, perPage int) (*services.ProductPage, error)
}

//
// DTOs
//

// CreateProductRequest is the JSON payload for creating a listing.
type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required" example:"미적분학 교재"`
	Description string   `json:"description" binding:"required" example:"2학년 전공 교재, 필기 약간"`
	Price       int      `json:"price" example:"12000"`
	CategoryID  uint     `json:"category_id" binding:"required" example:"1"`
	ImageURLs   []string `json:"image_urls"`
}

// AddImagesRequest is the JSON payload for appending images to a listing.
type AddImagesRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListProductsResponse wraps a page of listings and pagination information.
type ListProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID parses a :param as a positive integer ID. Writes the 400 response
// itself and returns false on bad input.
func pathID(c *gin.Context, name string) (uint, bool) {
	id := utils.AtoiDefault(c.Param(name), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated principal. Routes behind
// RequireUser always have one; the 401 here is a guard for misconfig.
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return id, ok
}

func toPageResponse(p *services.ProductPage) ListProductsResponse {
	return ListProductsResponse{
		Products: p.Items,
		Pagination: Pagination{
			Page:       p.Page,
			PageSize:   p.PerPage,
			Total:      p.Total,
			TotalPages: p.Pages(),
			HasNext:    p.HasNext(),
		},
	}
}

//
// Handlers
//

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a listing
// @Description Creates a WAITING listing owned by the current user.
// @Tags        Products
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateProductRequest true "New listing"
// @Success     201 {object} domain.Product
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.products.Create(c.Request.Context(), uid, services.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get one listing
// @Tags        Products
// @Produce     json
// @Param       id path int true "Product ID"
// @Success     200 {object} domain.Product
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List listings (paginated, newest first)
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Products
// @Produce     json
// @Param       page query int false "Page number" minimum(1) default(1)
// @Param       page_size query int false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200 {object} handlers.ListProductsResponse
// @Success     304 {string} string "Not Modified"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.ProductsStats(ctx, h.db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"products:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	pageOut, err := h.products.List(ctx, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, toPageResponse(pageOut))
}

// SearchProducts godoc
// @ID          searchProducts
// @Summary     Search listings
// @Description Exact, case-sensitive substring match on title or description.
// @Tags        Products
// @Produce     json
// @Param       keyword query string true "Search keyword"
// @Success     200 {object} handlers.ListProductsResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /products/search [get]
func (h *Handlers) SearchProducts(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword is required")
		return
	}
	page, pageSize := clampPagination(c)
	pageOut, err := h.products.Search(c.Request.Context(), keyword, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, toPageResponse(pageOut))
}

// ListByCategory godoc
// @ID          listProductsByCategory
// @Summary     List listings in one category
// @Tags        Products
// @Produce     json
// @Param       id path int true "Category ID"
// @Success     200 {object} handlers.ListProductsResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /categories/{id}/products [get]
func (h *Handlers) ListByCategory(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	page, pageSize := clampPagination(c)
	pageOut, err := h.products.ByCategory(c.Request.Context(), id, page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, toPageResponse(pageOut))
}

// ReserveProduct godoc
// @ID          reserveProduct
// @Summary     Reserve a listing for the current user
// @Description WAITING or RESERVED listings accept reservation; COMPLETED is terminal.
// @Tags        Products
// @Produce     json
// @Param       id path int true "Product ID"
// @Success     200 {object} domain.Product
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Router      /products/{id}/reserve [post]
func (h *Handlers) ReserveProduct(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	p, err := h.products.Reserve(c.Request.Context(), id, uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// CompleteProduct godoc
// @ID          completeProduct
// @Summary     Close the transaction on a reserved listing
// @Tags        Products
// @Produce     json
// @Param       id path int true "Product ID"
// @Success     200 {object} domain.Product
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Router      /products/{id}/complete [post]
func (h *Handlers) CompleteProduct(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	p, err := h.products.Complete(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProduct godoc
// @ID          deleteProduct
// @Summary     Delete a listing (seller only)
// @Tags        Products
// @Param       id path int true "Product ID"
// @Success     204 {string} string "No Content"
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /products/{id} [delete]
func (h *Handlers) DeleteProduct(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id, uid); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// AddProductImages godoc
// @ID          addProductImages
// @Summary     Append images to a listing (seller only)
// @Tags        Products
// @Accept      json
// @Produce     json
// @Param       id path int true "Product ID"
// @Param       body body handlers.AddImagesRequest true "Image URLs"
// @Success     201 {array} domain.Image
// @Failure     403 {object} handlers.ErrorResponse
// @Router      /products/{id}/images [post]
func (h *Handlers) AddProductImages(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var req AddImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "urls required")
		return
	}
	imgs, err := h.products.AddImages(c.Request.Context(), id, uid, req.URLs)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, imgs)
}

// DeleteProductImage godoc
// @ID          deleteProductImage
// @Summary     Remove one image (seller only)
// @Tags        Products
// @Param       id path int true "Image ID"
// @Success     204 {string} string "No Content"
// @Failure     403 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /images/{id} [delete]
func (h *Handlers) DeleteProductImage(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.products.DeleteImage(c.Request.Context(), id, uid); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}
