package service

import (
	"context"
	"errors"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"
	"hifz/tracker/internal/storage"
	"strings"

	"github.com/google/uuid" // For generating unique identifiers for S3 keys
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrInvalidContentType        = errors.New("invalid or missing audio content type")
	ErrUploadURLError            = errors.New("failed to generate upload URL")
	ErrUploadConfirmationFailed  = errors.New("failed to confirm upload")
	ErrObjectKeyMismatch         = errors.New("object key was not issued to this user")
	ErrRecitationNotFound        = errors.New("recitation not found")
	ErrRecitationNotBelongToUser = errors.New("recitation does not belong to this user")
	ErrStorageUnavailable        = errors.New("recitation storage is not configured")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	Day       int    `json:"day"`
}

// ConfirmUploadInput describes a finished client upload.
type ConfirmUploadInput struct {
	ObjectKey   string
	FileName    string
	Size        int64
	ContentType string
}

type RecitationService interface {
	// RequestUploadURL issues a presigned PUT for a recording of today's plan day.
	RequestUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	// ConfirmUpload stores metadata after the client finished the PUT.
	ConfirmUpload(ctx context.Context, userID primitive.ObjectID, input ConfirmUploadInput) (*domain.Recitation, error)
	GetDownloadURL(ctx context.Context, userID, recitationID primitive.ObjectID) (string, error)
	ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Recitation, error)
}

type recitationService struct {
	userRepo       repository.UserRepository
	recitationRepo repository.RecitationRepository
	audioStorage   storage.AudioStorage
	policy         Policy
	logger         *zap.Logger
}

// NewRecitationService creates a new instance of recitationService. A nil
// audioStorage disables the upload endpoints.
func NewRecitationService(
	userRepo repository.UserRepository,
	recitationRepo repository.RecitationRepository,
	audioStorage storage.AudioStorage,
	policy Policy,
	logger *zap.Logger,
) RecitationService {
	return &recitationService{
		userRepo:       userRepo,
		recitationRepo: recitationRepo,
		audioStorage:   audioStorage,
		policy:         policy,
		logger:         logger,
	}
}

func isAudio(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "audio/")
}

func (s *recitationService) RequestUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if s.audioStorage == nil {
		return nil, ErrStorageUnavailable
	}
	if !isAudio(contentType) {
		return nil, ErrInvalidContentType
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsEnrolled() {
		return nil, ErrNotEnrolled
	}

	day := s.policy.planDay(user)
	objectKey := storage.RecitationKey(userID.Hex(), day, uuid.NewString(), contentType)

	uploadURL, err := s.audioStorage.PresignUpload(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Error("presign upload failed", zap.String("userId", userID.Hex()), zap.Error(err))
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		Day:       day,
	}, nil
}

func (s *recitationService) ConfirmUpload(ctx context.Context, userID primitive.ObjectID, input ConfirmUploadInput) (*domain.Recitation, error) {
	if s.audioStorage == nil {
		return nil, ErrStorageUnavailable
	}
	if !isAudio(input.ContentType) {
		return nil, ErrInvalidContentType
	}
	owner, day, ok := storage.ParseRecitationKey(input.ObjectKey)
	if !ok || owner != userID.Hex() {
		return nil, ErrObjectKeyMismatch
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	recitation := &domain.Recitation{
		UserID:      userID,
		PlanID:      user.PlanID,
		Day:         day,
		S3ObjectKey: input.ObjectKey,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		// ID, UploadedAt set by repository
	}
	id, err := s.recitationRepo.Create(ctx, recitation)
	if err != nil {
		s.logger.Error("failed to save recitation metadata", zap.String("key", input.ObjectKey), zap.Error(err))
		// Without metadata nobody can reach the object, so drop it.
		if delErr := s.audioStorage.DeleteObject(ctx, input.ObjectKey); delErr != nil {
			s.logger.Warn("failed to delete orphaned recitation object", zap.String("key", input.ObjectKey), zap.Error(delErr))
		}
		return nil, ErrUploadConfirmationFailed
	}
	recitation.ID = id
	return recitation, nil
}

func (s *recitationService) GetDownloadURL(ctx context.Context, userID, recitationID primitive.ObjectID) (string, error) {
	if s.audioStorage == nil {
		return "", ErrStorageUnavailable
	}
	recitation, err := s.recitationRepo.GetByID(ctx, recitationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrRecitationNotFound
		}
		return "", err
	}
	if recitation.UserID != userID || !storage.KeyBelongsTo(recitation.S3ObjectKey, userID.Hex()) {
		return "", ErrRecitationNotBelongToUser
	}

	url, err := s.audioStorage.PresignDownload(ctx, recitation.S3ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Error("presign download failed", zap.String("key", recitation.S3ObjectKey), zap.Error(err))
		return "", err
	}
	return url, nil
}

func (s *recitationService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Recitation, error) {
	return s.recitationRepo.GetByUserID(ctx, userID)
}
