package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "market.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.VerificationTTL != 24*time.Hour {
		t.Fatalf("VerificationTTL = %v", cfg.VerificationTTL)
	}
	if len(cfg.Categories) == 0 {
		t.Fatal("default categories missing")
	}
	if cfg.SMTP.Port != 587 {
		t.Fatalf("SMTP.Port = %d", cfg.SMTP.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CATEGORIES", " 도서 , 티켓 ")
	t.Setenv("VERIFICATION_TTL", "1h")
	t.Setenv("SITE_URL", "https://market.example.com/")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("LOG_LEVEL", "warning")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "도서" || cfg.Categories[1] != "티켓" {
		t.Fatalf("Categories = %v", cfg.Categories)
	}
	if cfg.VerificationTTL != time.Hour {
		t.Fatalf("VerificationTTL = %v", cfg.VerificationTTL)
	}
	if cfg.SMTP.SiteURL != "https://market.example.com" {
		t.Fatalf("SiteURL not trimmed: %q", cfg.SMTP.SiteURL)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode not normalized: %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel not normalized: %q", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":        "verbose",
		"VERIFICATION_TTL": "-1h",
		"RATE_BURST":       "0",
		"SMTP_PORT":        "70000",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
