package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recitation stores metadata about an audio recording a user uploaded for a
// plan day. The file itself lives in object storage.
type Recitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID      string             `bson:"planId,omitempty" json:"planId,omitempty"`
	Day         int                `bson:"day" json:"day"`                 // Plan day the recording belongs to
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"`           // Internal use only
	FileName    string             `bson:"fileName" json:"fileName"`       // Original filename provided by the user
	ContentType string             `bson:"contentType" json:"contentType"` // e.g. "audio/mpeg"
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
