package services

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertOAuth_RegistersOnFirstLogin(t *testing.T) {
	s := NewUserService(newSvcDB(t))

	u, err := s.UpsertOAuth(context.Background(), "kakao", "sub-1", "kim@kakao.com", "kim", "https://img/1.png")
	if err != nil {
		t.Fatalf("UpsertOAuth: %v", err)
	}
	if u.ID == 0 || u.Verified {
		t.Fatalf("unexpected new user %+v", u)
	}

	again, err := s.UpsertOAuth(context.Background(), "kakao", "sub-1", "kim@kakao.com", "kim", "https://img/1.png")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("second login created a new account: %d vs %d", again.ID, u.ID)
	}
}

func TestUpsertOAuth_RefreshesProfileKeepsVerification(t *testing.T) {
	s := NewUserService(newSvcDB(t))

	u, _ := s.UpsertOAuth(context.Background(), "kakao", "sub-1", "kim@kakao.com", "kim", "")
	u.Verified = true
	u.UniversityName = "서울대학교"
	if err := s.DB.Save(u).Error; err != nil {
		t.Fatalf("seed verification: %v", err)
	}

	got, err := s.UpsertOAuth(context.Background(), "kakao", "sub-1", "kim@kakao.com", "kim2", "https://img/2.png")
	if err != nil {
		t.Fatalf("UpsertOAuth: %v", err)
	}
	if got.Nickname != "kim2" || got.ProfileImage != "https://img/2.png" {
		t.Fatalf("profile not refreshed: %+v", got)
	}
	if !got.Verified || got.UniversityName != "서울대학교" {
		t.Fatalf("verification state lost: %+v", got)
	}
}

func TestUpsertOAuth_ProvidersAreDistinct(t *testing.T) {
	s := NewUserService(newSvcDB(t))

	a, _ := s.UpsertOAuth(context.Background(), "kakao", "sub-1", "a@x.com", "a", "")
	b, err := s.UpsertOAuth(context.Background(), "google", "sub-1", "b@x.com", "b", "")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("same subject on different providers must be two accounts")
	}
}

func TestUserGet_NotFound(t *testing.T) {
	s := NewUserService(newSvcDB(t))
	if _, err := s.Get(context.Background(), 404); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}
