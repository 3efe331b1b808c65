package api

import (
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type PreferencesRequest struct {
	Enabled  *bool    `json:"enabled" binding:"required"`
	Channels []string `json:"channels" binding:"omitempty,dive,oneof=email push"`
}

// GetPending godoc
// @Summary Unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Notification
// @Router /me/notifications [get]
func (h *NotificationHandler) GetPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.notificationService.GetPending(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	c.JSON(http.StatusOK, items)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ObjectID Hex"
// @Success 204
// @Failure 404 {object} gin.H "Notification not found"
// @Router /me/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdatePreferences godoc
// @Summary Opt in or out of reminders
// @Tags Notifications
// @Accept json
// @Security BearerAuth
// @Param body body PreferencesRequest true "Preferences"
// @Success 204
// @Router /me/notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if err := h.notificationService.UpdatePreferences(c.Request.Context(), userID, *req.Enabled, req.Channels); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
