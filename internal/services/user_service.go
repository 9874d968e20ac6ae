// Package services – UserService
//
// Accounts arrive through OAuth login: the (provider, subject) pair is the
// identity, and the first login registers the account. University membership
// is handled separately by VerificationService.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/repo"
)

// UserService manages accounts.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// UpsertOAuth returns the account identified by (provider, oauthID),
// registering it on first login. Profile fields are refreshed from the
// provider on every login; verification state is never touched here.
func (s *UserService) UpsertOAuth(ctx context.Context, provider, oauthID, email, nickname, profileImage string) (*domain.User, error) {
	u, err := repo.GetUserByOAuth(ctx, s.DB, provider, oauthID)
	if err == nil {
		u.Email = email
		u.Nickname = nickname
		u.ProfileImage = profileImage
		if serr := repo.SaveUser(ctx, s.DB, u); serr != nil {
			return nil, serr
		}
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	return repo.CreateUser(ctx, s.DB, &domain.User{
		Email:         email,
		Nickname:      nickname,
		ProfileImage:  profileImage,
		OAuthProvider: provider,
		OAuthID:       oauthID,
	})
}

// Get returns one account profile.
func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
