package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "salonhq/internal/appointments/errors"
	"salonhq/pkg/config"
	"salonhq/pkg/model"
)

const (
	LockCollectionName = "Slot_locks"
)

// SlotLockRepository holds advisory locks on (date, time) slots. A lock only
// guards the write window of a booking in flight; it is not a reservation.
type SlotLockRepository interface {
	Acquire(ctx context.Context, date, timeOfDay string) (*model.SlotLock, error)
	Release(ctx context.Context, lockID string) error
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. The unique _id makes a concurrent second
// acquire fail with a duplicate key error, surfaced as ErrSlotLocked. Stale
// locks are reaped by the TTL index on expires_at.
func (r *mongoSlotLockRepository) Acquire(ctx context.Context, date, timeOfDay string) (*model.SlotLock, error) {
	lock := &model.SlotLock{
		ID:        fmt.Sprintf("%s@%s", date, timeOfDay),
		ExpiresAt: time.Now().UTC().Add(r.cfg.SlotLockTTL),
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, appointmenterrors.ErrSlotLocked
		}
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	return lock, nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, lockID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
