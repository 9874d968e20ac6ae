// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model and its owned Image rows.
//
// Functions:
//
//   - CreateProduct(ctx, db, p) -> *domain.Product, error
//     Inserts a product together with its image rows in one statement.
//
//   - GetProduct(ctx, db, id) -> *domain.Product, error
//     Fetches a product with images preloaded, or ErrNotFound.
//
//   - SaveProduct(ctx, db, p) -> error
//     Persists status/buyer mutations of an existing product row.
//
//   - DeleteProduct / DeleteProductImages / AddImages / GetImage / DeleteImage
//     Ownership-cascade helpers invoked by the lifecycle service.
//
//   - ListProductsPage / SearchProductsPage / ListProductsByCategoryPage
//     Paginated read queries ordered by creation time descending, with
//     matching Count* functions for pagination metadata.
//
// The keyword search matches a case-sensitive substring against title OR
// description; there is no ranking.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// CreateProduct inserts a new product row along with any attached images.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error) {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct fetches a product by ID with its images preloaded, or
// ErrNotFound if missing.
func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Preload("Images").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProduct persists every field of an existing product row.
func SaveProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeleteProduct removes the product row. Image and chat-room rows cascade
// through their FK constraints; the object-storage purge happens in the
// service layer before this call.
func DeleteProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Delete(p).Error
}

// DeleteProductImages removes every image row owned by productID.
func DeleteProductImages(ctx context.Context, db *gorm.DB, productID uint) error {
	return db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&domain.Image{}).Error
}

// AddImages inserts image rows for the given product.
func AddImages(ctx context.Context, db *gorm.DB, productID uint, urls []string) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(urls))
	for _, u := range urls {
		images = append(images, domain.Image{URL: u, ProductID: productID})
	}
	if len(images) == 0 {
		return images, nil
	}
	if err := db.WithContext(ctx).Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// GetImage fetches a single image row, or ErrNotFound if missing.
func GetImage(ctx context.Context, db *gorm.DB, id uint) (*domain.Image, error) {
	var img domain.Image
	if err := db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage removes a single image row.
func DeleteImage(ctx context.Context, db *gorm.DB, img *domain.Image) error {
	return db.WithContext(ctx).Delete(img).Error
}

// CountProducts returns the total number of products.
func CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error
	return total, err
}

// ListProductsPage returns a page of products ordered by creation time
// descending with images preloaded. The caller computes offset and limit.
func ListProductsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Preload("Images").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// searchScope narrows a query to products whose title or description
// contains keyword. instr() compares bytes, unlike LIKE which folds ASCII
// case, so the match stays case-sensitive.
func searchScope(db *gorm.DB, keyword string) *gorm.DB {
	return db.Where("instr(title, ?) > 0 OR instr(description, ?) > 0", keyword, keyword)
}

// CountSearchProducts returns the number of products whose title or
// description contains keyword as a case-sensitive substring.
func CountSearchProducts(ctx context.Context, db *gorm.DB, keyword string) (int64, error) {
	var total int64
	err := searchScope(db.WithContext(ctx).Model(&domain.Product{}), keyword).Count(&total).Error
	return total, err
}

// SearchProductsPage returns a page of products matching keyword, ordered by
// creation time descending.
func SearchProductsPage(ctx context.Context, db *gorm.DB, keyword string, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := searchScope(db.WithContext(ctx).Preload("Images"), keyword).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountProductsByCategory returns the number of products in categoryID.
func CountProductsByCategory(ctx context.Context, db *gorm.DB, categoryID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("category_id = ?", categoryID).
		Count(&total).Error
	return total, err
}

// ListProductsByCategoryPage returns a page of products in categoryID,
// ordered by creation time descending.
func ListProductsByCategoryPage(ctx context.Context, db *gorm.DB, categoryID uint, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Preload("Images").
		Where("category_id = ?", categoryID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
