// Upload-grant HTTP handler.
//
// Image bytes never pass through the backend: clients request a short-lived
// presigned PUT URL here, upload directly to the bucket, then attach the
// resulting file URL to a listing.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/storage"
)

// UploadService issues presigned upload grants. *storage.ImageStore
// satisfies it.
type UploadService interface {
	PresignUpload(userID uint, fileName, contentType string) (*storage.UploadGrant, error)
}

// UploadGrantRequest is the JSON payload for requesting an upload grant.
type UploadGrantRequest struct {
	FileName    string `json:"file_name" binding:"required" example:"front.jpg"`
	ContentType string `json:"content_type" example:"image/jpeg"`
}

// IssueUploadGrant godoc
// @ID          issueUploadGrant
// @Summary     Issue a presigned image upload URL
// @Description The grant expires after five minutes and is bound to one object key.
// @Tags        Uploads
// @Accept      json
// @Produce     json
// @Param       body body handlers.UploadGrantRequest true "Upload descriptor"
// @Success     201 {object} storage.UploadGrant
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /uploads [post]
func (h *Handlers) IssueUploadGrant(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req UploadGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file_name required")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	grant, err := h.uploads.PresignUpload(uid, req.FileName, contentType)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not issue upload grant")
		return
	}
	ok(c, http.StatusCreated, grant)
}
