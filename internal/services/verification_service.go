// Package services – VerificationService
//
// This file implements university email verification: issuing 6-digit codes
// to academic addresses and confirming them. A confirmed code marks the user
// verified and stamps their university name, derived from the email domain.
//
// Codes live 24 hours. A user may hold several outstanding codes at once;
// issuing a new one never invalidates the old, and confirming any unexpired
// one succeeds. Re-confirming an already-verified record stays a success.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/repo"
	"github.com/univmarket/go-market-backend/internal/univ"
)

// CodeMailer queues the verification-code email. *notify.Dispatcher
// satisfies it.
type CodeMailer interface {
	VerificationCode(email, code string)
}

// VerificationService issues and confirms university email codes.
type VerificationService struct {
	DB *gorm.DB

	// Mailer receives the code after the record is persisted. Optional.
	Mailer CodeMailer

	// CodeTTL is how long an issued code stays confirmable.
	CodeTTL time.Duration

	// NameLocale selects the locale used when synthesizing university names.
	NameLocale language.Tag

	// now is swappable for tests.
	now func() time.Time
}

// NewVerificationService constructs a VerificationService with the 24 hour
// default TTL.
func NewVerificationService(db *gorm.DB, mailer CodeMailer) *VerificationService {
	return &VerificationService{
		DB:         db,
		Mailer:     mailer,
		CodeTTL:    24 * time.Hour,
		NameLocale: language.Korean,
		now:        time.Now,
	}
}

// newCode draws a uniformly random 6-digit code.
func newCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// RequestCode issues a fresh code for univEmail on behalf of userID and
// queues the email. The address must belong to an academic domain.
func (s *VerificationService) RequestCode(ctx context.Context, userID uint, univEmail string) (*domain.UnivVerification, error) {
	tr := otel.Tracer("services/VerificationService")
	ctx, span := tr.Start(ctx, "RequestCode",
		trace.WithAttributes(attribute.Int("user.id", int(userID))),
	)
	defer span.End()

	if !univ.IsAcademicEmail(univEmail) {
		return nil, ErrNotAcademicEmail
	}
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	v := &domain.UnivVerification{
		Email:     univEmail,
		Code:      newCode(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.CodeTTL),
	}
	v, err := repo.CreateVerification(ctx, s.DB, v)
	if err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		s.Mailer.VerificationCode(v.Email, v.Code)
	}
	return v, nil
}

// Confirm checks (email, code) and, inside one transaction, marks the record
// verified and promotes the owning user: Verified = true, UniversityName
// derived from the email domain. Confirming an already-verified record is an
// idempotent success.
func (s *VerificationService) Confirm(ctx context.Context, email, code string) (*domain.User, error) {
	tr := otel.Tracer("services/VerificationService")
	ctx, span := tr.Start(ctx, "Confirm")
	defer span.End()

	v, err := repo.GetVerificationByEmailAndCode(ctx, s.DB, email, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	if !v.Verified && s.now().After(v.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	var u *domain.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err = repo.GetUser(ctx, tx, v.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !v.Verified {
			v.Verified = true
			if err := repo.SaveVerification(ctx, tx, v); err != nil {
				return err
			}
		}
		u.Verified = true
		u.UniversityName = univ.NameForEmail(v.Email, s.NameLocale)
		return repo.SaveUser(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
