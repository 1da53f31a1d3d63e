package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	stafferrors "salonhq/internal/staff/errors"
	"salonhq/pkg/config"
	mongotx "salonhq/pkg/db/mongo"
	"salonhq/pkg/model"
)

const (
	CollectionName = "Staff"
)

type StaffRepository interface {
	Create(ctx context.Context, member *model.StaffMember) error
	FindByID(ctx context.Context, id int64) (*model.StaffMember, error)
	FindAll(ctx context.Context) ([]*model.StaffMember, error)
	FindByStatus(ctx context.Context, status string) ([]*model.StaffMember, error)
	Update(ctx context.Context, id int64, member *model.StaffMember) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id int64) error
	NextID(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoStaffRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoStaffRepository(cfg *config.Config) StaffRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStaffRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, whose SessionContext must not be wrapped.
func (r *mongoStaffRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoStaffRepository) Create(ctx context.Context, member *model.StaffMember) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	member.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, member); err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	return nil
}

func (r *mongoStaffRepository) FindByID(ctx context.Context, id int64) (*model.StaffMember, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var member model.StaffMember
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, stafferrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find staff member: %w", err)
	}

	return &member, nil
}

// FindAll returns the roster in insertion order. Ids are allocated
// monotonically, so sorting by _id preserves directory order.
func (r *mongoStaffRepository) FindAll(ctx context.Context) ([]*model.StaffMember, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoStaffRepository) FindByStatus(ctx context.Context, status string) ([]*model.StaffMember, error) {
	return r.find(ctx, bson.M{"status": status})
}

func (r *mongoStaffRepository) find(ctx context.Context, filter bson.M) ([]*model.StaffMember, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find staff members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []*model.StaffMember
	if err = cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode staff members: %w", err)
	}

	return members, nil
}

func (r *mongoStaffRepository) Update(ctx context.Context, id int64, member *model.StaffMember) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":        member.Name,
			"email":       member.Email,
			"phone":       member.Phone,
			"role":        member.Role,
			"specialties": member.Specialties,
			"commission":  member.Commission,
			"status":      member.Status,
			"schedule":    member.Schedule,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update staff member: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, stafferrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoStaffRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}

	if result.DeletedCount == 0 {
		return stafferrors.ErrNotFound
	}

	return nil
}

// NextID allocates max(existing ids)+1, or 1 for an empty roster. Ids are
// never reused while a document holding the max remains.
func (r *mongoStaffRepository) NextID(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})

	var top struct {
		ID int64 `bson:"_id"`
	}
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&top)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to determine next staff id: %w", err)
	}

	return top.ID + 1, nil
}

func (r *mongoStaffRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count staff members: %w", err)
	}

	return count, nil
}

func (r *mongoStaffRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
