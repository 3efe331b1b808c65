package scheduler

import (
	"context"
	"fmt"
	"hifz/tracker/internal/config"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// jobTimeout bounds one run of a daily job.
const jobTimeout = 5 * time.Minute

// Reminder queues the daily memorization reminders.
type Reminder interface {
	SendDailyReminders(ctx context.Context) (int, error)
}

// AdherenceChecker re-evaluates every enrolled user's plan.
type AdherenceChecker interface {
	CheckAllEnrolled(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       config.SchedulerConfig
	reminder  Reminder
	adherence AdherenceChecker
	logger    *zap.Logger
}

// New creates a new scheduler instance. Job hours are wall-clock hours in loc.
func New(cfg config.SchedulerConfig, loc *time.Location, reminder Reminder, adherence AdherenceChecker, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		cfg:       cfg,
		reminder:  reminder,
		adherence: adherence,
		logger:    logger,
	}
}

// Start registers the daily jobs and runs the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(atHour(s.cfg.ReminderHour)).Do(s.RunReminders); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At(atHour(s.cfg.AdherenceHour)).Do(s.RunAdherenceSweep); err != nil {
		return fmt.Errorf("schedule adherence sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		zap.Int("reminderHour", s.cfg.ReminderHour),
		zap.Int("adherenceHour", s.cfg.AdherenceHour))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs is the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// RunReminders queues today's reminders once.
func (s *Scheduler) RunReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.reminder.SendDailyReminders(ctx)
	if err != nil {
		s.logger.Error("daily reminders failed", zap.Error(err))
		return
	}
	s.logger.Info("daily reminders queued", zap.Int("count", sent))
}

// RunAdherenceSweep checks every enrolled user once.
func (s *Scheduler) RunAdherenceSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	adjusted, err := s.adherence.CheckAllEnrolled(ctx)
	if err != nil {
		s.logger.Error("adherence sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("adherence sweep finished", zap.Int("plansAdjusted", adjusted))
}

func atHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}
