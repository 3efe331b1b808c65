package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStatus tracks whether a user has seen a notification.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationRead    NotificationStatus = "read"
)

// Notification kinds
const (
	NotificationReminder   = "memorization_reminder"
	NotificationMotivation = "motivation"
)

// Notification is an in-app message queued for a user.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Priority  string             `bson:"priority,omitempty" json:"priority,omitempty"`
	Status    NotificationStatus `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

// MotivationalMessage picks an encouragement for a cumulative verse count.
func MotivationalMessage(completedVerses int) string {
	switch {
	case completedVerses < 50:
		return "Keep going! Every verse you memorize brings you closer to your goal."
	case completedVerses < 200:
		return "Wow! You're making great progress. Stay consistent!"
	default:
		return "You're an inspiration! Your dedication to memorizing the Quran is remarkable."
	}
}
