package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User represents a registered user and their memorization state.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Enrollment ---
	PlanID string `bson:"planId,omitempty" json:"planId,omitempty"`
	// SubscribedAt is written on plan selection; StartDate is the older field
	// some clients wrote instead. Either may be a string or a datetime.
	SubscribedAt *Instant `bson:"subscribedAt,omitempty" json:"subscribedAt,omitempty"`
	StartDate    *Instant `bson:"startDate,omitempty" json:"startDate,omitempty"`

	// --- Progress & adherence ---
	Progress             *Progress       `bson:"progress,omitempty" json:"progress,omitempty"`
	Failures             map[string]bool `bson:"failures,omitempty" json:"failures,omitempty"` // "2006-01-02" -> true
	PlanAdjustmentNotice string          `bson:"planAdjustmentNotice,omitempty" json:"planAdjustmentNotice,omitempty"`

	// --- Notifications ---
	NotificationsEnabled bool     `bson:"notificationsEnabled" json:"notificationsEnabled"`
	NotificationChannels []string `bson:"notificationChannels,omitempty" json:"notificationChannels,omitempty"`
}

// Progress is the cumulative memorization record of one user.
type Progress struct {
	CompletedVerses       int             `bson:"completedVerses" json:"completedVerses"`
	DailyGoalMet          bool            `bson:"dailyGoalMet" json:"dailyGoalMet"`
	LastSurah             string          `bson:"lastSurah" json:"lastSurah"`
	LastAyah              int             `bson:"lastAyah" json:"lastAyah"`
	LastMemorizedLocation Location        `bson:"lastMemorizedLocation" json:"lastMemorizedLocation"`
	LastUpdated           *time.Time      `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
	CompletedTasks        []CompletedTask `bson:"completedTasks" json:"completedTasks"`
}

// Location points at a memorized ayah.
type Location struct {
	Surah string `bson:"surah" json:"surah"`
	Ayah  int    `bson:"ayah" json:"ayah"`
}

// CompletedTask is one entry of the append-only completion history.
type CompletedTask struct {
	Type    string    `bson:"type" json:"type"`
	Verses  int       `bson:"verses" json:"verses"`
	Surah   string    `bson:"surah" json:"surah"`
	Date    time.Time `bson:"date" json:"date"`
	GoalMet bool      `bson:"dailyGoalMet" json:"goalMet"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsEnrolled reports whether the user has picked a plan.
func (u *User) IsEnrolled() bool {
	return u.PlanID != ""
}

// EnrollmentInstant returns the day-zero reference for schedule resolution:
// subscribedAt, else startDate. ok is false when neither is set.
func (u *User) EnrollmentInstant() (t time.Time, ok bool) {
	if u.SubscribedAt != nil && !u.SubscribedAt.IsZero() {
		return u.SubscribedAt.Time, true
	}
	if u.StartDate != nil && !u.StartDate.IsZero() {
		return u.StartDate.Time, true
	}
	return time.Time{}, false
}
