package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/domain"
)

// CreateVerification persists a new verification record. Earlier codes for
// the same user stay valid until they expire.
func CreateVerification(ctx context.Context, db *gorm.DB, v *domain.UnivVerification) (*domain.UnivVerification, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// GetVerificationByEmailAndCode fetches the record matching the (email, code)
// pair, or ErrNotFound when no such code was ever issued.
func GetVerificationByEmailAndCode(ctx context.Context, db *gorm.DB, email, code string) (*domain.UnivVerification, error) {
	var v domain.UnivVerification
	err := db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveVerification persists mutations of an existing verification record.
func SaveVerification(ctx context.Context, db *gorm.DB, v *domain.UnivVerification) error {
	return db.WithContext(ctx).Save(v).Error
}
