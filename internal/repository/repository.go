package repository

import (
	"context"
	"hifz/tracker/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	// SetPlan enrolls the user in planID starting at subscribedAt.
	SetPlan(ctx context.Context, id primitive.ObjectID, planID string, subscribedAt time.Time) error
	// ApplyProgress writes entry in one atomic update (counter increment,
	// field overwrites, history append) and returns the new counter value.
	ApplyProgress(ctx context.Context, id primitive.ObjectID, entry domain.ProgressEntry) (int, error)
	// InitProgress creates an empty progress record if the user has none.
	InitProgress(ctx context.Context, id primitive.ObjectID, progress domain.Progress) error
	// MarkFailure sets failures.<day> = true.
	MarkFailure(ctx context.Context, id primitive.ObjectID, day string) error
	SetAdjustmentNotice(ctx context.Context, id primitive.ObjectID, notice string) error
	SetNotificationPreferences(ctx context.Context, id primitive.ObjectID, enabled bool, channels []string) error

	ListEnrolled(ctx context.Context) ([]domain.User, error)
	ListNotifiable(ctx context.Context) ([]domain.User, error)
}

// PlanRepository defines the interface for interacting with plan templates.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	List(ctx context.Context) ([]domain.Plan, error)
	// UpdateSchedule overwrites the whole dailySchedule array and lastAdjusted.
	UpdateSchedule(ctx context.Context, id string, schedule []domain.ScheduleEntry, adjustedAt time.Time) error
}

// NotificationRepository defines the interface for queued user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	GetPendingByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, readAt time.Time) error
}

// RecitationRepository defines the interface for recitation upload metadata.
type RecitationRepository interface {
	Create(ctx context.Context, r *domain.Recitation) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Recitation, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Recitation, error)
}
