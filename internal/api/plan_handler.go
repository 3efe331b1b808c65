package api

import (
	"errors"
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type CreatePlanRequest struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name" binding:"required"`
	TotalVerses      int                    `json:"totalVerses" binding:"gte=0"`
	FailureTolerance int                    `json:"failureTolerance" binding:"gte=0"`
	DailySchedule    []domain.ScheduleEntry `json:"dailySchedule" binding:"required,min=1"`
}

// ListPlans godoc
// @Summary List memorization plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Plan
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get one plan with its schedule
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.Plan
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), c.Param("planId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan godoc
// @Summary Create a plan template (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan"
// @Success 201 {object} domain.Plan
// @Failure 400 {object} gin.H "Invalid plan"
// @Failure 409 {object} gin.H "Plan ID taken"
// @Router /admin/plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), &domain.Plan{
		ID:               req.ID,
		Name:             req.Name,
		TotalVerses:      req.TotalVerses,
		FailureTolerance: req.FailureTolerance,
		DailySchedule:    req.DailySchedule,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}
