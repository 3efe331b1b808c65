package service

import (
	"context"
	"errors"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AdherenceService interface {
	// LogFailure marks today as missed. Marking the same day twice is a no-op.
	LogFailure(ctx context.Context, userID primitive.ObjectID) error
	// CheckAndAdjust reduces the user's plan when recent failures exceed its
	// tolerance. Every read or write error is returned.
	CheckAndAdjust(ctx context.Context, userID primitive.ObjectID) (*domain.AdjustmentResult, error)
	// CheckAllEnrolled runs CheckAndAdjust for every enrolled user and returns
	// how many plans were adjusted. Per-user errors are logged and skipped.
	CheckAllEnrolled(ctx context.Context) (int, error)
}

type adherenceService struct {
	userRepo repository.UserRepository
	planRepo repository.PlanRepository
	policy   Policy
	logger   *zap.Logger
}

// NewAdherenceService creates a new instance of adherenceService.
func NewAdherenceService(userRepo repository.UserRepository, planRepo repository.PlanRepository, policy Policy, logger *zap.Logger) AdherenceService {
	return &adherenceService{
		userRepo: userRepo,
		planRepo: planRepo,
		policy:   policy,
		logger:   logger,
	}
}

func (s *adherenceService) LogFailure(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.userRepo.MarkFailure(ctx, userID, s.policy.today()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return writeFailure(err)
	}
	return nil
}

func (s *adherenceService) CheckAndAdjust(ctx context.Context, userID primitive.ObjectID) (*domain.AdjustmentResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// No plan to check against; reported like a dangling planId.
	if !user.IsEnrolled() {
		return nil, ErrPlanNotFound
	}

	plan, err := s.planRepo.GetByID(ctx, user.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// The window is recomputed from now on every call.
	result := &domain.AdjustmentResult{
		PlanID:           plan.ID,
		RecentFailures:   domain.CountRecentFailures(user.Failures, s.policy.now(), s.policy.location()),
		FailureTolerance: plan.FailureTolerance,
	}
	if result.RecentFailures <= plan.FailureTolerance {
		return result, nil
	}

	if err := s.adjustPlan(ctx, user, plan); err != nil {
		return nil, err
	}
	result.Adjusted = true
	return result, nil
}

// adjustPlan rewrites the shared plan. Two users crossing the threshold at
// the same moment can both apply a reduction; the schedule only gets more
// lenient, never corrupted.
func (s *adherenceService) adjustPlan(ctx context.Context, user *domain.User, plan *domain.Plan) error {
	schedule := domain.AdjustSchedule(plan.DailySchedule, s.policy.ReductionPercent)
	if err := s.planRepo.UpdateSchedule(ctx, plan.ID, schedule, s.policy.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return writeFailure(err)
	}
	if err := s.userRepo.SetAdjustmentNotice(ctx, user.ID, s.policy.AdjustmentNotice); err != nil {
		return writeFailure(err)
	}

	s.logger.Info("plan adjusted after missed days",
		zap.String("planId", plan.ID),
		zap.String("userId", user.ID.Hex()),
		zap.Int("reductionPercent", s.policy.ReductionPercent))
	return nil
}

func (s *adherenceService) CheckAllEnrolled(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListEnrolled(ctx)
	if err != nil {
		return 0, err
	}

	adjusted := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return adjusted, ctx.Err()
		}
		result, err := s.CheckAndAdjust(ctx, u.ID)
		if err != nil {
			s.logger.Error("adherence check failed", zap.String("userId", u.ID.Hex()), zap.Error(err))
			continue
		}
		if result.Adjusted {
			adjusted++
		}
	}
	return adjusted, nil
}
