package service

import (
	"context"
	"errors"
	"fmt"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MemorizationService interface {
	// ResolveDailyTask always returns a renderable pair. When err is non-nil
	// the pair is the zero-valued placeholder.
	ResolveDailyTask(ctx context.Context, userID primitive.ObjectID) (domain.DailyTasks, error)
	// LogProgress records one completed task. Write failures propagate.
	LogProgress(ctx context.Context, userID primitive.ObjectID, input domain.TaskReportInput) (*domain.ProgressSnapshot, error)
	GenerateReport(ctx context.Context, userID primitive.ObjectID) (*domain.ProgressReport, error)
	SubscribeToPlan(ctx context.Context, userID primitive.ObjectID, planID string) error
}

type memorizationService struct {
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	publisher ProgressPublisher
	policy    Policy
	logger    *zap.Logger
}

// NewMemorizationService creates a new instance of memorizationService.
func NewMemorizationService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	publisher ProgressPublisher,
	policy Policy,
	logger *zap.Logger,
) MemorizationService {
	return &memorizationService{
		userRepo:  userRepo,
		planRepo:  planRepo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
	}
}

// === Plan Schedule Resolver ===

func (s *memorizationService) ResolveDailyTask(ctx context.Context, userID primitive.ObjectID) (domain.DailyTasks, error) {
	tasks, err := s.resolve(ctx, userID)
	if err != nil {
		s.logger.Warn("daily task unavailable, serving placeholder",
			zap.String("userId", userID.Hex()), zap.Error(err))
		return domain.PlaceholderDailyTasks(), err
	}
	return tasks, nil
}

func (s *memorizationService) resolve(ctx context.Context, userID primitive.ObjectID) (domain.DailyTasks, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DailyTasks{}, ErrUserNotFound
		}
		return domain.DailyTasks{}, err
	}
	if !user.IsEnrolled() {
		return domain.DailyTasks{}, ErrNotEnrolled
	}

	plan, err := s.planRepo.GetByID(ctx, user.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DailyTasks{}, ErrPlanNotFound
		}
		return domain.DailyTasks{}, err
	}
	if len(plan.DailySchedule) == 0 {
		return domain.DailyTasks{}, fmt.Errorf("%w: plan %s has an empty schedule", ErrPlanNotFound, plan.ID)
	}

	day := s.policy.planDay(user)

	entry, found := plan.EntryForDay(day)
	if !found {
		return domain.DailyTasks{}, fmt.Errorf("%w: day %d of plan %s", ErrNoTaskForToday, day, plan.ID)
	}
	return domain.BuildDailyTasks(entry, s.policy.RevisionVerses), nil
}

// === Progress Accumulator ===

func (s *memorizationService) LogProgress(ctx context.Context, userID primitive.ObjectID, input domain.TaskReportInput) (*domain.ProgressSnapshot, error) {
	report := domain.NormalizeTaskReport(input)
	now := s.policy.now().UTC()
	entry := domain.NewProgressEntry(report, now)

	total, err := s.userRepo.ApplyProgress(ctx, userID, entry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to log progress", zap.String("userId", userID.Hex()), zap.Error(err))
		return nil, writeFailure(err)
	}

	if s.publisher != nil {
		s.publisher.Publish(domain.ProgressUpdate{
			UserID:                userID.Hex(),
			LastSurah:             report.Surah,
			LastAyah:              report.LastAyah,
			CompletedVerses:       total,
			LastMemorizedLocation: entry.Location,
		})
	}

	return &domain.ProgressSnapshot{
		CompletedVerses:       report.CompletedVerses,
		TotalVerses:           total,
		DailyGoalMet:          report.GoalMet,
		Surah:                 report.Surah,
		StartAyah:             report.StartAyah,
		LastAyah:              report.LastAyah,
		TaskType:              report.TaskType,
		LastMemorizedLocation: entry.Location,
		Timestamp:             now,
	}, nil
}

// === Reporting & enrollment ===

// GenerateReport summarises the user's progress. Users without a progress
// record get an empty one written and a zero report back.
func (s *memorizationService) GenerateReport(ctx context.Context, userID primitive.ObjectID) (*domain.ProgressReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Progress == nil {
		if err := s.userRepo.InitProgress(ctx, userID, domain.EmptyProgress()); err != nil {
			return nil, writeFailure(err)
		}
		return &domain.ProgressReport{}, nil
	}

	p := user.Progress
	return &domain.ProgressReport{
		TotalCompletedVerses:  p.CompletedVerses,
		LastMemorizedLocation: domain.Location{Surah: p.LastSurah, Ayah: p.LastAyah},
		LastSurahName:         domain.SurahDisplayName(p.LastSurah),
		CompletedTasks:        len(p.CompletedTasks),
		FailureRate:           domain.FailureRate(p.CompletedTasks),
	}, nil
}

// SubscribeToPlan enrolls the user; the plan day count restarts from now.
func (s *memorizationService) SubscribeToPlan(ctx context.Context, userID primitive.ObjectID, planID string) error {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	if err := s.userRepo.SetPlan(ctx, userID, planID, s.policy.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return writeFailure(err)
	}
	s.logger.Info("user subscribed to plan", zap.String("userId", userID.Hex()), zap.String("planId", planID))
	return nil
}
