package api

import (
	"errors"
	"hifz/tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorStatus maps service sentinels to HTTP status codes. Order matters:
// the first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrPlanNotFound, http.StatusNotFound},
	{service.ErrNoTaskForToday, http.StatusNotFound},
	{service.ErrNotificationNotFound, http.StatusNotFound},
	{service.ErrRecitationNotFound, http.StatusNotFound},
	{service.ErrNotEnrolled, http.StatusConflict},
	{service.ErrPlanExists, http.StatusConflict},
	{service.ErrInvalidPlan, http.StatusBadRequest},
	{service.ErrInvalidContentType, http.StatusBadRequest},
	{service.ErrObjectKeyMismatch, http.StatusForbidden},
	{service.ErrRecitationNotBelongToUser, http.StatusForbidden},
	{service.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{service.ErrWriteFailure, http.StatusServiceUnavailable},
}

// respondServiceError aborts with the status mapped from err. Unmapped errors
// are recorded on the context for the request logger and hidden from clients.
func respondServiceError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			abortWithError(c, m.status, m.err.Error())
			return
		}
	}
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
}
