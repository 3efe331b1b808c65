package mongo

import (
	"context"
	"errors"
	"hifz/tracker/internal/domain"
	"hifz/tracker/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const recitationCollectionName = "recitations"

// mongoRecitationRepository implements repository.RecitationRepository
type mongoRecitationRepository struct {
	collection *mongo.Collection
}

// NewMongoRecitationRepository creates a new Recitation repository backed by MongoDB.
func NewMongoRecitationRepository(db *mongo.Database) repository.RecitationRepository {
	return &mongoRecitationRepository{
		collection: db.Collection(recitationCollectionName),
	}
}

// Create inserts new recitation metadata into the database.
func (r *mongoRecitationRepository) Create(ctx context.Context, rec *domain.Recitation) (primitive.ObjectID, error) {
	if rec.UserID == primitive.NilObjectID || rec.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("recitation requires userId and s3ObjectKey")
	}

	rec.ID = primitive.NewObjectID()
	rec.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves recitation metadata by its ID.
func (r *mongoRecitationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Recitation, error) {
	var rec domain.Recitation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetByUserID lists a user's recitations, newest first.
func (r *mongoRecitationRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Recitation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recs := []domain.Recitation{}
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// EnsureRecitationIndexes creates necessary indexes for the recitations collection.
func EnsureRecitationIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "uploadedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("failed to create indexes", zap.String("collection", collection.Name()), zap.Error(err))
	}
}
