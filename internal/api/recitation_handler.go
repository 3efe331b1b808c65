package api

import (
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RecitationHandler struct {
	recitationService service.RecitationService
}

func NewRecitationHandler(recitationService service.RecitationService) *RecitationHandler {
	return &RecitationHandler{recitationService: recitationService}
}

// --- DTOs ---

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,gt=0"`
	ContentType string `json:"contentType" binding:"required"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// RequestUploadURL godoc
// @Summary Get a pre-signed URL to upload today's recitation
// @Tags Recitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RequestUploadURLRequest true "Audio content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Not an audio content type"
// @Failure 409 {object} gin.H "Not enrolled in a plan"
// @Router /me/recitations/upload-url [post]
func (h *RecitationHandler) RequestUploadURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.recitationService.RequestUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm a finished recitation upload
// @Description Called after the client PUT the file to the pre-signed URL.
// @Tags Recitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ConfirmUploadRequest true "Upload details"
// @Success 201 {object} domain.Recitation
// @Failure 403 {object} gin.H "Object key belongs to someone else"
// @Router /me/recitations [post]
func (h *RecitationHandler) ConfirmUpload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	rec, err := h.recitationService.ConfirmUpload(c.Request.Context(), userID, service.ConfirmUploadInput{
		ObjectKey:   req.ObjectKey,
		FileName:    req.FileName,
		Size:        req.FileSize,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListRecitations godoc
// @Summary My uploaded recitations
// @Tags Recitations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Recitation
// @Router /me/recitations [get]
func (h *RecitationHandler) ListRecitations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recs, err := h.recitationService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.Recitation{}
	}
	c.JSON(http.StatusOK, recs)
}

// GetDownloadURL godoc
// @Summary Temporary URL to play back one of my recitations
// @Tags Recitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recitation ObjectID Hex"
// @Success 200 {object} DownloadURLResponse
// @Failure 403 {object} gin.H "Not your recitation"
// @Failure 404 {object} gin.H "Recitation not found"
// @Router /me/recitations/{id}/download-url [get]
func (h *RecitationHandler) GetDownloadURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.recitationService.GetDownloadURL(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{DownloadURL: url})
}
