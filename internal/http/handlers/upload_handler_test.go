package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/storage"
)

func TestIssueUploadGrant(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Missing file name -> 400
	{
		h := newStubHandlers(Options{})
		r := gin.New()
		r.POST("/uploads", asUser(1), h.IssueUploadGrant)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/uploads", `{"file_name":"   "}`))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank file_name -> %d", w.Code)
		}
	}

	// Presign failure -> 500 with upload_failed code
	{
		h := New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{}, stubVerif{}, stubUploads{
			presign: func(uint, string, string) (*storage.UploadGrant, error) {
				return nil, errors.New("signer unavailable")
			},
		}, Options{})
		r := gin.New()
		r.POST("/uploads", asUser(1), h.IssueUploadGrant)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/uploads", `{"file_name":"front.jpg"}`))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("presign error -> %d", w.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body.Code != ErrCodeUploadFailed {
			t.Fatalf("error code = %q", body.Code)
		}
	}

	// Success -> 201 with both URLs
	{
		var gotUser uint
		var gotType string
		h := New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{}, stubVerif{}, stubUploads{
			presign: func(userID uint, fileName, contentType string) (*storage.UploadGrant, error) {
				gotUser, gotType = userID, contentType
				return &storage.UploadGrant{
					UploadURL: "https://bucket.s3.amazonaws.com/images/9/u_" + fileName + "?sig=x",
					FileURL:   "https://bucket.s3.amazonaws.com/images/9/u_" + fileName,
					Key:       "images/9/u_" + fileName,
				}, nil
			},
		}, Options{})
		r := gin.New()
		r.POST("/uploads", asUser(9), h.IssueUploadGrant)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/uploads", `{"file_name":"front.jpg","content_type":"image/jpeg"}`))
		if w.Code != http.StatusCreated {
			t.Fatalf("grant -> %d body=%s", w.Code, w.Body.String())
		}
		if gotUser != 9 || gotType != "image/jpeg" {
			t.Fatalf("presign args user=%d type=%q", gotUser, gotType)
		}
		var out storage.UploadGrant
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if !strings.Contains(out.UploadURL, "sig=") || out.Key == "" {
			t.Fatalf("unexpected grant: %#v", out)
		}
	}

	// Content type defaults when omitted
	{
		var gotType string
		h := New(stubProducts{}, stubChats{}, stubUsers{}, stubCats{}, stubVerif{}, stubUploads{
			presign: func(_ uint, _, contentType string) (*storage.UploadGrant, error) {
				gotType = contentType
				return &storage.UploadGrant{}, nil
			},
		}, Options{})
		r := gin.New()
		r.POST("/uploads", asUser(1), h.IssueUploadGrant)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonReq(http.MethodPost, "/uploads", `{"file_name":"a.png"}`))
		if w.Code != http.StatusCreated {
			t.Fatalf("grant -> %d", w.Code)
		}
		if gotType != "application/octet-stream" {
			t.Fatalf("default content type = %q", gotType)
		}
	}
}
