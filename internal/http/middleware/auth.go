// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the request principal. Production traffic authenticates
// with a Bearer JWT (HMAC-signed, user ID in the "sub" claim); development
// setups may additionally allow a plain X-User-ID header so the API can be
// exercised without an identity provider in front of it.
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// userIDKey is the Gin context key under which the principal is stored.
const userIDKey = "userID"

// AuthOptions configures principal resolution.
type AuthOptions struct {
	// JWTSecret verifies Bearer tokens. Empty disables token auth.
	JWTSecret string
	// DevHeader accepts X-User-ID as the principal. Development only.
	DevHeader bool
}

// CurrentUserID returns the authenticated user's ID from the Gin context.
// The second result is false for anonymous requests.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Auth returns middleware that resolves and stores the request principal.
// Requests without usable credentials pass through anonymous; RequireUser
// is the gate for protected routes.
func Auth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := principalFrom(c, opts); ok {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no principal was resolved.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			reqID := c.Writer.Header().Get("X-Request-ID")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": reqID,
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context, opts AuthOptions) (uint, bool) {
	if opts.JWTSecret != "" {
		if id, ok := fromBearer(c.GetHeader("Authorization"), opts.JWTSecret); ok {
			return id, true
		}
	}
	if opts.DevHeader {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				return uint(id), true
			}
		}
	}
	return 0, false
}

func fromBearer(header, secret string) (uint, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return 0, false
	}
	raw := strings.TrimSpace(header[len(prefix):])

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, false
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IssueToken mints an HMAC-signed JWT for userID. Used by the OAuth login
// handler after upsert.
func IssueToken(secret string, userID uint, ttlSeconds int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": now.Unix() + ttlSeconds,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
