package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(opts))
	r.GET("/open", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	})
	r.GET("/closed", RequireUser(), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestAuth_BearerToken(t *testing.T) {
	const secret = "test-secret"
	r := authRouter(AuthOptions{JWTSecret: secret})

	tok, err := IssueToken(secret, 42, 3600)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"id":42}` {
		t.Fatalf("body = %s", body)
	}
}

func TestAuth_BadTokensAreAnonymous(t *testing.T) {
	r := authRouter(AuthOptions{JWTSecret: "right-secret"})

	wrong, err := IssueToken("wrong-secret", 42, 3600)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	for _, header := range []string{"", "Bearer garbage", "Bearer " + wrong, "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/closed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	const secret = "test-secret"
	r := authRouter(AuthOptions{JWTSecret: secret})

	tok, err := IssueToken(secret, 42, -10)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuth_DevHeader(t *testing.T) {
	// Disabled by default: the header alone must not authenticate.
	r := authRouter(AuthOptions{JWTSecret: "s"})
	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("dev header honored while disabled: %d", w.Code)
	}

	r = authRouter(AuthOptions{DevHeader: true})
	for header, want := range map[string]int{
		"7":  http.StatusOK,
		"0":  http.StatusUnauthorized,
		"-3": http.StatusUnauthorized,
		"xy": http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/closed", nil)
		req.Header.Set("X-User-ID", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("X-User-ID %q: status = %d, want %d", header, w.Code, want)
		}
	}
}
