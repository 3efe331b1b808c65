package service

import (
	"context"
	"errors"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrNotificationNotFound = errors.New("notification not found")

var defaultChannels = []string{"email", "push"}

type NotificationService interface {
	// SendDailyReminder queues a reminder if the user opted in and has not
	// logged progress today. It reports whether one was queued.
	SendDailyReminder(ctx context.Context, userID primitive.ObjectID) (bool, error)
	SendMotivationalMessage(ctx context.Context, userID primitive.ObjectID) error
	// SendDailyReminders runs SendDailyReminder for every opted-in user.
	SendDailyReminders(ctx context.Context) (int, error)
	GetPending(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, enabled bool, channels []string) error
}

type notificationService struct {
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	policy           Policy
	logger           *zap.Logger
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(userRepo repository.UserRepository, notificationRepo repository.NotificationRepository, policy Policy, logger *zap.Logger) NotificationService {
	return &notificationService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		policy:           policy,
		logger:           logger,
	}
}

func (s *notificationService) getUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *notificationService) SendDailyReminder(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.remind(ctx, user)
}

func (s *notificationService) remind(ctx context.Context, user *domain.User) (bool, error) {
	if !user.NotificationsEnabled || s.loggedToday(user) {
		return false, nil
	}
	_, err := s.notificationRepo.Create(ctx, &domain.Notification{
		UserID:   user.ID,
		Type:     domain.NotificationReminder,
		Title:    "Daily Quran Memorization Reminder",
		Message:  "You haven't logged your progress today. Let's continue your memorization journey!",
		Priority: "high",
	})
	if err != nil {
		return false, writeFailure(err)
	}
	return true, nil
}

func (s *notificationService) loggedToday(user *domain.User) bool {
	if user.Progress == nil || user.Progress.LastUpdated == nil {
		return false
	}
	return domain.CalendarDay(*user.Progress.LastUpdated, s.policy.location()) == s.policy.today()
}

func (s *notificationService) SendMotivationalMessage(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	verses := 0
	if user.Progress != nil {
		verses = user.Progress.CompletedVerses
	}
	_, err = s.notificationRepo.Create(ctx, &domain.Notification{
		UserID:  user.ID,
		Type:    domain.NotificationMotivation,
		Title:   "Motivational Message",
		Message: domain.MotivationalMessage(verses),
	})
	if err != nil {
		return writeFailure(err)
	}
	return nil
}

func (s *notificationService) SendDailyReminders(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListNotifiable(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range users {
		ok, err := s.remind(ctx, &users[i])
		if err != nil {
			s.logger.Error("failed to queue reminder", zap.String("userId", users[i].ID.Hex()), zap.Error(err))
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (s *notificationService) GetPending(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	return s.notificationRepo.GetPendingByUserID(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	if err := s.notificationRepo.MarkRead(ctx, notificationID, userID, s.policy.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return writeFailure(err)
	}
	return nil
}

func (s *notificationService) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, enabled bool, channels []string) error {
	if len(channels) == 0 {
		channels = defaultChannels
	}
	if err := s.userRepo.SetNotificationPreferences(ctx, userID, enabled, channels); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return writeFailure(err)
	}
	return nil
}
