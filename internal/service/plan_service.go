package service

import (
	"context"
	"errors"
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"

	"go.uber.org/zap"
)

type PlanService interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

type planService struct {
	planRepo repository.PlanRepository
	logger   *zap.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.PlanRepository, logger *zap.Logger) PlanService {
	return &planService{planRepo: planRepo, logger: logger}
}

// ValidatePlan checks a plan template before it is stored.
func ValidatePlan(plan *domain.Plan) error {
	if plan.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if len(plan.DailySchedule) == 0 {
		return fmt.Errorf("%w: daily schedule is empty", ErrInvalidPlan)
	}
	if plan.FailureTolerance < 0 {
		return fmt.Errorf("%w: failure tolerance must not be negative", ErrInvalidPlan)
	}
	seen := make(map[int]bool, len(plan.DailySchedule))
	for i, entry := range plan.DailySchedule {
		if !entry.Day.Valid() {
			return fmt.Errorf("%w: entry %d has unparsable day %q", ErrInvalidPlan, i, entry.Day.String())
		}
		if seen[entry.Day.Index] {
			return fmt.Errorf("%w: day %d appears twice", ErrInvalidPlan, entry.Day.Index)
		}
		seen[entry.Day.Index] = true
		if entry.StartAyah < 1 || entry.EndAyah < entry.StartAyah {
			return fmt.Errorf("%w: entry for day %d has ayah range %d-%d", ErrInvalidPlan, entry.Day.Index, entry.StartAyah, entry.EndAyah)
		}
	}
	return nil
}

func (s *planService) CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPlanExists
		}
		return nil, writeFailure(err)
	}
	s.logger.Info("plan created", zap.String("planId", plan.ID), zap.Int("days", len(plan.DailySchedule)))
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.planRepo.List(ctx)
}
