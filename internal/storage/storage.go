package storage

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// AudioStorage is the object store holding recitation recordings.
type AudioStorage interface {
	// PresignUpload returns a URL that accepts one PUT of objectKey with the
	// given content type.
	PresignUpload(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error)
	// PresignDownload returns a temporary GET URL for objectKey.
	PresignDownload(ctx context.Context, objectKey string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// RecitationKey builds "recitations/<user>/day-<n>/<id>.<ext>" for an upload.
func RecitationKey(userID string, day int, uniqueID, contentType string) string {
	ext := "bin"
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = strings.SplitN(parts[1], ";", 2)[0]
	}
	return path.Join("recitations", userID, fmt.Sprintf("day-%d", day), uniqueID+"."+ext)
}

// KeyBelongsTo reports whether objectKey was issued for userID.
func KeyBelongsTo(objectKey, userID string) bool {
	return strings.HasPrefix(objectKey, path.Join("recitations", userID)+"/")
}

// ParseRecitationKey extracts the user and plan day from a key built by
// RecitationKey.
func ParseRecitationKey(objectKey string) (userID string, day int, ok bool) {
	parts := strings.Split(objectKey, "/")
	if len(parts) != 4 || parts[0] != "recitations" || parts[1] == "" {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(parts[2], "day-"))
	if err != nil || !strings.HasPrefix(parts[2], "day-") || n < 1 {
		return "", 0, false
	}
	return parts[1], n, true
}
