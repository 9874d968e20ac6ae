// Category HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// CategoryService defines category operations consumed by HTTP handlers.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
}

// CreateCategoryRequest is the JSON payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required" example:"악기"`
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List all categories
// @Tags        Categories
// @Produce     json
// @Success     200 {array} domain.Category
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.cats.List(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, cats)
}

// CreateCategory godoc
// @ID          createCategory
// @Summary     Create a category
// @Tags        Categories
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateCategoryRequest true "Category name"
// @Success     201 {object} domain.Category
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cat, err := h.cats.Create(c.Request.Context(), req.Name)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}
