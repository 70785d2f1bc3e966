package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	editlockserrors "pensio/internal/editlocks/errors"
	"pensio/pkg/config"
	"pensio/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "EditLocks"
)

type LockRepository interface {
	Insert(ctx context.Context, lock *model.EditLock) error
	Get(ctx context.Context, reservationID string) (*model.EditLock, error)
	RefreshHeartbeat(ctx context.Context, reservationID, holder string, at time.Time) (bool, error)
	Delete(ctx context.Context, reservationID, holder string) (bool, error)
	DeleteByHolder(ctx context.Context, holder string) (int64, error)
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
	List(ctx context.Context) ([]model.EditLock, error)
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// Insert claims the lock by writing a document keyed on the reservation
// id. The unique _id index makes the claim atomic: a second concurrent
// insert loses with a duplicate key error.
func (r *mongoLockRepository) Insert(ctx context.Context, lock *model.EditLock) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return editlockserrors.ErrAlreadyLocked
		}
		return fmt.Errorf("failed to insert edit lock: %w", err)
	}
	return nil
}

func (r *mongoLockRepository) Get(ctx context.Context, reservationID string) (*model.EditLock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var lock model.EditLock
	err := r.collection.FindOne(ctx, bson.M{"_id": reservationID}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, editlockserrors.ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to find edit lock: %w", err)
	}

	return &lock, nil
}

// RefreshHeartbeat bumps the heartbeat only when the caller is still the
// holder. Returns false when no matching lock exists.
func (r *mongoLockRepository) RefreshHeartbeat(ctx context.Context, reservationID, holder string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": reservationID, "holder": holder}
	update := bson.M{"$set": bson.M{"last_heartbeat": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to refresh edit lock heartbeat: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *mongoLockRepository) Delete(ctx context.Context, reservationID, holder string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": reservationID, "holder": holder})
	if err != nil {
		return false, fmt.Errorf("failed to delete edit lock: %w", err)
	}

	return result.DeletedCount > 0, nil
}

func (r *mongoLockRepository) DeleteByHolder(ctx context.Context, holder string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"holder": holder})
	if err != nil {
		return 0, fmt.Errorf("failed to delete edit locks by holder: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *mongoLockRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"last_heartbeat": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale edit locks: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *mongoLockRepository) List(ctx context.Context) ([]model.EditLock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "locked_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list edit locks: %w", err)
	}
	defer cursor.Close(ctx)

	var locks []model.EditLock
	if err = cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("failed to decode edit locks: %w", err)
	}

	return locks, nil
}
