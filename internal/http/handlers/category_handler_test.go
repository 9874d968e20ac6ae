package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/services"
)

func TestListCategories_OK(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{
		list: func(context.Context) ([]domain.Category, error) {
			return []domain.Category{{ID: 1, Name: "도서"}, {ID: 2, Name: "전자기기"}}, nil
		},
	}, stubVerif{}, stubUploads{}, Options{})
	r := gin.New()
	r.GET("/categories", h.ListCategories)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var out []domain.Category
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out) != 2 || out[0].Name != "도서" {
		t.Fatalf("unexpected categories: %#v", out)
	}
}

func TestCreateCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Blank name -> 400
	{
		h := New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{
			create: func(context.Context, string) (*domain.Category, error) {
				return nil, services.ErrEmptyTitle
			},
		}, stubVerif{}, stubUploads{}, Options{})
		r := gin.New()
		r.POST("/categories", asUser(1), h.CreateCategory)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/categories", `{"name":"  "}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank name -> %d", w.Code)
		}
	}

	// Success -> 201
	{
		h := newStubHandlers(Options{})
		r := gin.New()
		r.POST("/categories", asUser(1), h.CreateCategory)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/categories", `{"name":"티켓"}`))
		if w.Code != http.StatusCreated {
			t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Category
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Name != "티켓" {
			t.Fatalf("unexpected category: %#v", out)
		}
	}
}
