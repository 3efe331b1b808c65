package api

import (
	"errors"
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultStreamKeepAlive is how often an idle progress stream sends a ping.
const DefaultStreamKeepAlive = 25 * time.Second

// ProgressSubscriber hands out per-user progress feeds.
type ProgressSubscriber interface {
	Subscribe(userID string) (<-chan domain.ProgressUpdate, func())
}

type MemorizationHandler struct {
	memorizationService service.MemorizationService
	adherenceService    service.AdherenceService
	subscriber          ProgressSubscriber
	keepAlive           time.Duration
}

func NewMemorizationHandler(
	memorizationService service.MemorizationService,
	adherenceService service.AdherenceService,
	subscriber ProgressSubscriber,
) *MemorizationHandler {
	return &MemorizationHandler{
		memorizationService: memorizationService,
		adherenceService:    adherenceService,
		subscriber:          subscriber,
		keepAlive:           DefaultStreamKeepAlive,
	}
}

// --- DTOs ---

type SubscribeRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

// TodayResponse always carries a renderable task pair. Available is false
// when the pair is the placeholder.
type TodayResponse struct {
	Tasks     domain.DailyTasks `json:"tasks"`
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
}

// --- Handler Methods ---

// SubscribeToPlan godoc
// @Summary Enroll in a memorization plan
// @Tags Member
// @Accept json
// @Security BearerAuth
// @Param body body SubscribeRequest true "Plan to follow"
// @Success 204
// @Failure 404 {object} gin.H "Plan not found"
// @Router /me/plan [post]
func (h *MemorizationHandler) SubscribeToPlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if err := h.memorizationService.SubscribeToPlan(c.Request.Context(), userID, req.PlanID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTodayTasks godoc
// @Summary Today's memorization and revision tasks
// @Description Never fails for an authenticated user: when the plan cannot be resolved a zero-valued placeholder is returned with available=false.
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TodayResponse
// @Router /me/tasks/today [get]
func (h *MemorizationHandler) GetTodayTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.memorizationService.ResolveDailyTask(c.Request.Context(), userID)
	resp := TodayResponse{Tasks: tasks, Available: err == nil}
	if err != nil {
		resp.Reason = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// LogProgress godoc
// @Summary Record a completed task
// @Tags Member
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param report body domain.TaskReportInput true "Completed task"
// @Success 201 {object} domain.ProgressSnapshot
// @Failure 503 {object} gin.H "Progress could not be stored"
// @Router /me/progress [post]
func (h *MemorizationHandler) LogProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var input domain.TaskReportInput
	// An empty body is a valid all-defaults report.
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	snapshot, err := h.memorizationService.LogProgress(c.Request.Context(), userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// GetReport godoc
// @Summary Progress summary
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.ProgressReport
// @Router /me/progress/report [get]
func (h *MemorizationHandler) GetReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	report, err := h.memorizationService.GenerateReport(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// StreamProgress godoc
// @Summary Live progress updates (server-sent events)
// @Tags Member
// @Produce text/event-stream
// @Security BearerAuth
// @Router /me/progress/stream [get]
func (h *MemorizationHandler) StreamProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	updates, cancel := h.subscriber.Subscribe(userID.Hex())
	defer cancel()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// The server write timeout would otherwise cut the stream; if the writer
	// does not support deadlines the client's EventSource reconnects.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	// Send headers now so clients see the stream open before the first event.
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, open := <-updates:
			if !open {
				return false
			}
			c.SSEvent("progress", u)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}

// LogFailure godoc
// @Summary Mark today as missed
// @Tags Member
// @Security BearerAuth
// @Success 204
// @Router /me/failures [post]
func (h *MemorizationHandler) LogFailure(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.adherenceService.LogFailure(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAdherence godoc
// @Summary Re-evaluate my plan against recent missed days
// @Tags Member
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.AdjustmentResult
// @Router /me/adherence/check [post]
func (h *MemorizationHandler) CheckAdherence(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.checkAdherence(c, userID)
}

// CheckUserAdherence godoc
// @Summary Re-evaluate a user's plan (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ObjectID Hex"
// @Success 200 {object} domain.AdjustmentResult
// @Router /admin/users/{userId}/adherence/check [post]
func (h *MemorizationHandler) CheckUserAdherence(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	h.checkAdherence(c, userID)
}

func (h *MemorizationHandler) checkAdherence(c *gin.Context, userID primitive.ObjectID) {
	result, err := h.adherenceService.CheckAndAdjust(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
