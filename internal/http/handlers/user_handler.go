// User and verification HTTP handlers.
//
// This file exposes account and university verification endpoints:
//   - POST /auth/login              (OAuth upsert, returns user + token)
//   - GET  /users/me                (current profile)
//   - GET  /users/{id}              (public profile)
//   - POST /verification/request    (mail a 6-digit code)
//   - POST /verification/confirm    (confirm and promote the account)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/domain"
	"github.com/univmarket/go-market-backend/internal/http/middleware"
)

// UserService defines account operations consumed by HTTP handlers.
type UserService interface {
	UpsertOAuth(ctx context.Context, provider, oauthID, email, nickname, profileImage string) (*domain.User, error)
	Get(ctx context.Context, id uint) (*domain.User, error)
}

// VerificationService defines university verification operations.
type VerificationService interface {
	RequestCode(ctx context.Context, userID uint, univEmail string) (*domain.UnivVerification, error)
	Confirm(ctx context.Context, email, code string) (*domain.User, error)
}

// LoginRequest is the JSON payload for the OAuth login exchange. The OAuth
// dance itself happens on the client; the backend trusts the gateway-verified
// provider identity and upserts the account.
type LoginRequest struct {
	Provider     string `json:"provider" binding:"required" example:"kakao"`
	OAuthID      string `json:"oauth_id" binding:"required" example:"2845913571"`
	Email        string `json:"email" binding:"required,email"`
	Nickname     string `json:"nickname" binding:"required"`
	ProfileImage string `json:"profile_image"`
}

// LoginResponse returns the account and its session token.
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// RequestCodeRequest is the JSON payload for requesting a verification code.
type RequestCodeRequest struct {
	Email string `json:"email" binding:"required,email" example:"kim@snu.ac.kr"`
}

// ConfirmCodeRequest is the JSON payload for confirming a verification code.
type ConfirmCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6" example:"834012"`
}

// Login godoc
// @ID          login
// @Summary     OAuth login / registration
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body body handlers.LoginRequest true "Provider identity"
// @Success     200 {object} handlers.LoginResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.users.UpsertOAuth(c.Request.Context(), req.Provider, req.OAuthID, req.Email, req.Nickname, req.ProfileImage)
	if err != nil {
		failFromService(c, err)
		return
	}

	resp := LoginResponse{User: u}
	if h.jwtSecret != "" {
		tok, terr := middleware.IssueToken(h.jwtSecret, u.ID, 30*24*3600)
		if terr != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			return
		}
		resp.Token = tok
	}
	ok(c, http.StatusOK, resp)
}

// Me godoc
// @ID          me
// @Summary     Current user's profile
// @Tags        Users
// @Produce     json
// @Success     200 {object} domain.User
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	u, err := h.users.Get(c.Request.Context(), uid)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Public profile of one user
// @Tags        Users
// @Produce     json
// @Param       id path int true "User ID"
// @Success     200 {object} domain.User
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// RequestVerification godoc
// @ID          requestVerification
// @Summary     Mail a university verification code
// @Description The address must end in .ac.kr or .edu. Codes stay valid 24 hours.
// @Tags        Verification
// @Accept      json
// @Produce     json
// @Param       body body handlers.RequestCodeRequest true "University email"
// @Success     202 {object} domain.UnivVerification
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /verification/request [post]
func (h *Handlers) RequestVerification(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	v, err := h.verif.RequestCode(c.Request.Context(), uid, req.Email)
	if err != nil {
		failFromService(c, err)
		return
	}
	// The code itself travels only by email; the record serializes without it.
	ok(c, http.StatusAccepted, v)
}

// ConfirmVerification godoc
// @ID          confirmVerification
// @Summary     Confirm a verification code
// @Description Marks the account verified and stamps its university name.
// @Tags        Verification
// @Accept      json
// @Produce     json
// @Param       body body handlers.ConfirmCodeRequest true "Email and code"
// @Success     200 {object} domain.User
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Router      /verification/confirm [post]
func (h *Handlers) ConfirmVerification(c *gin.Context) {
	var req ConfirmCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.verif.Confirm(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
