package service

import (
	"errors"
	"fmt"
	"hifz/tracker/internal/config"
	"hifz/tracker/internal/domain"
	"time"
)

// --- Error Definitions ---
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNotEnrolled    = errors.New("user is not enrolled in a plan")
	ErrPlanNotFound   = errors.New("plan not found")
	ErrNoTaskForToday = errors.New("no task found for today")
	ErrWriteFailure   = errors.New("write to store failed")
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrPlanExists     = errors.New("plan with this id already exists")
)

func writeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrWriteFailure, err)
}

// ProgressPublisher receives a notification after every logged task.
type ProgressPublisher interface {
	Publish(update domain.ProgressUpdate)
}

// Policy carries the memorization rules shared by the services.
type Policy struct {
	Location         *time.Location
	RevisionVerses   int
	ReductionPercent int
	AdjustmentNotice string
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg config.PlanConfig) (Policy, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		Location:         loc,
		RevisionVerses:   cfg.RevisionVerses,
		ReductionPercent: cfg.ReductionPercent,
		AdjustmentNotice: cfg.AdjustmentNotice,
	}, nil
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// today is the calendar-day key of now in the policy timezone.
func (p Policy) today() string {
	return domain.CalendarDay(p.now(), p.location())
}

// planDay is the 1-based day of the user's plan as of now. Users with no
// enrollment date are on day 1.
func (p Policy) planDay(user *domain.User) int {
	now := p.now()
	start, ok := user.EnrollmentInstant()
	if !ok {
		start = now
	}
	return domain.DaysSinceStart(start, now)
}
