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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
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

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetPlan points the user at a plan and restarts their day count.
func (r *mongoUserRepository) SetPlan(ctx context.Context, id primitive.ObjectID, planID string, subscribedAt time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"planId":       planID,
			"subscribedAt": domain.NewInstant(subscribedAt),
			"updatedAt":    time.Now().UTC(),
		},
	})
}

// ApplyProgress is a single-document update, so the increment, the overwrites
// and the history append land together. The counter uses $inc so concurrent
// submissions never lose verses; the other fields are last-writer-wins.
func (r *mongoUserRepository) ApplyProgress(ctx context.Context, id primitive.ObjectID, entry domain.ProgressEntry) (int, error) {
	// $inc cannot create a field inside a null progress, which older
	// documents carry. A missing progress is fine.
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "progress": bson.M{"$type": "null"}},
		bson.M{"$set": bson.M{"progress": bson.M{}}},
	)
	if err != nil {
		return 0, err
	}

	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"progress.completedVerses": entry.Report.CompletedVerses},
		"$set": bson.M{
			"progress.dailyGoalMet":          entry.Report.GoalMet,
			"progress.lastSurah":             entry.Report.Surah,
			"progress.lastAyah":              entry.Report.LastAyah,
			"progress.lastMemorizedLocation": entry.Location,
			"progress.lastUpdated":           entry.At,
			"updatedAt":                      entry.At,
		},
		"$push": bson.M{"progress.completedTasks": entry.Task},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"progress.completedVerses": 1})

	var updated struct {
		Progress struct {
			CompletedVerses int `bson:"completedVerses"`
		} `bson:"progress"`
	}
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return updated.Progress.CompletedVerses, nil
}

// InitProgress only writes when the progress sub-document is missing or null.
func (r *mongoUserRepository) InitProgress(ctx context.Context, id primitive.ObjectID, progress domain.Progress) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"progress": bson.M{"$exists": false}},
			bson.M{"progress": nil},
		},
	}
	update := bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// MarkFailure is idempotent: the same day key is simply set to true again.
func (r *mongoUserRepository) MarkFailure(ctx context.Context, id primitive.ObjectID, day string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{"failures." + day: true},
	})
}

func (r *mongoUserRepository) SetAdjustmentNotice(ctx context.Context, id primitive.ObjectID, notice string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{"planAdjustmentNotice": notice, "updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) SetNotificationPreferences(ctx context.Context, id primitive.ObjectID, enabled bool, channels []string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"notificationsEnabled": enabled,
			"notificationChannels": channels,
			"updatedAt":            time.Now().UTC(),
		},
	})
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListEnrolled returns every user with a plan.
func (r *mongoUserRepository) ListEnrolled(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, bson.M{"planId": bson.M{"$exists": true, "$ne": ""}})
}

// ListNotifiable returns users who opted in to notifications.
func (r *mongoUserRepository) ListNotifiable(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, bson.M{"notificationsEnabled": true})
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"passwordHash": 0}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}}, // Enrolled users for the adherence sweep
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "notificationsEnabled", Value: 1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn("failed to create indexes", zap.String("collection", collection.Name()), zap.Error(err))
	}
}
