// Package services – CategoryService
//
// Categories are a flat, mostly static namespace seeded at boot. The service
// exists so handlers keep a single calling convention across the domain.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/repo"
)

// CategoryService exposes category lookup and creation.
type CategoryService struct {
	DB *gorm.DB
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{DB: db}
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return repo.ListCategories(ctx, s.DB)
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.Category, error) {
	c, err := repo.GetCategory(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a new category. Blank names are rejected.
func (s *CategoryService) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTitle
	}
	return repo.CreateCategory(ctx, s.DB, name)
}
