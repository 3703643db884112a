package repository

import (
	"context"
	"errors"
	"fmt"
	slotserrors "interviewsync/internal/slots/errors"
	"interviewsync/pkg/config"
	mongotx "interviewsync/pkg/db/mongo"
	"interviewsync/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

type mongoSlotRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	FindByID(ctx context.Context, id string) (*model.Slot, error)
	FindAll(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.Slot, error)
	Count(ctx context.Context, filter model.SlotFilter) (int64, error)
	FindConflicting(ctx context.Context, interviewerID string, start, end time.Time, excludeID string) (*model.Slot, error)
	UpdateTimes(ctx context.Context, id string, start, end time.Time) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Claim(ctx context.Context, slot *model.Slot, interviewID string) error
	Release(ctx context.Context, id string, interviewID string) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx unless it belongs to a transaction, whose lifetime
// is owned by ExecuteTransaction.
func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongotx.InSession(ctx) {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if !slot.EndTime.After(slot.StartTime) {
		return slotserrors.ErrInvalidTimeRange
	}

	now := model.NormalizeTime(time.Now())
	if slot.ID == "" {
		slot.ID = primitive.NewObjectID().Hex()
	}
	slot.StartTime = model.NormalizeTime(slot.StartTime)
	slot.EndTime = model.NormalizeTime(slot.EndTime)
	slot.CreatedAt = now
	slot.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, slot); err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return nil, err
	}

	var slot model.Slot
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}

	return &slot, nil
}

func buildFilter(f model.SlotFilter) bson.M {
	filter := bson.M{}
	if f.InterviewerID != "" {
		filter["interviewer_id"] = f.InterviewerID
	}
	if f.StartDate != nil {
		filter["start_time"] = bson.M{"$gte": model.NormalizeTime(*f.StartDate)}
	}
	if f.EndDate != nil {
		filter["end_time"] = bson.M{"$lte": model.NormalizeTime(*f.EndDate)}
	}
	if f.Available != nil {
		filter["is_available"] = *f.Available
	}
	return filter
}

func (r *mongoSlotRepository) FindAll(ctx context.Context, f model.SlotFilter, limit int, offset int64) ([]*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := []*model.Slot{}
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) Count(ctx context.Context, f model.SlotFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count slots: %w", err)
	}
	return count, nil
}

// FindConflicting returns a slot of the interviewer overlapping [start, end),
// or nil when there is none.
func (r *mongoSlotRepository) FindConflicting(ctx context.Context, interviewerID string, start, end time.Time, excludeID string) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"interviewer_id": interviewerID,
		"start_time":     bson.M{"$lt": model.NormalizeTime(end)},
		"end_time":       bson.M{"$gt": model.NormalizeTime(start)},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	var slot model.Slot
	err := r.collection.FindOne(ctx, filter).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	return &slot, nil
}

// unbookedUpdate applies update only while no interview is linked to the slot.
func (r *mongoSlotRepository) unbookedUpdate(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	set["updated_at"] = model.NormalizeTime(time.Now())
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "interview_id": nil},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missReason(ctx, id, slotserrors.ErrSlotBooked)
	}
	return nil
}

// missReason tells a missing slot apart from one that failed the write filter.
func (r *mongoSlotRepository) missReason(ctx context.Context, id string, filtered error) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check slot existence: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", filtered, id)
}

func (r *mongoSlotRepository) UpdateTimes(ctx context.Context, id string, start, end time.Time) error {
	if !end.After(start) {
		return slotserrors.ErrInvalidTimeRange
	}
	return r.unbookedUpdate(ctx, id, bson.M{
		"start_time": model.NormalizeTime(start),
		"end_time":   model.NormalizeTime(end),
	})
}

func (r *mongoSlotRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return r.unbookedUpdate(ctx, id, bson.M{"is_available": available})
}

// Claim atomically flips an available slot to held by interviewID. The match
// includes the interviewer and bounds the caller validated, so a concurrent
// edit or booking makes the claim fail with ErrSlotUnavailable.
func (r *mongoSlotRepository) Claim(ctx context.Context, slot *model.Slot, interviewID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":            slot.ID,
		"is_available":   true,
		"interview_id":   nil,
		"interviewer_id": slot.InterviewerID,
		"start_time":     model.NormalizeTime(slot.StartTime),
		"end_time":       model.NormalizeTime(slot.EndTime),
	}
	update := bson.M{"$set": bson.M{
		"is_available": false,
		"interview_id": interviewID,
		"updated_at":   model.NormalizeTime(time.Now()),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missReason(ctx, slot.ID, slotserrors.ErrSlotUnavailable)
	}
	return nil
}

// Release frees a slot held by interviewID.
func (r *mongoSlotRepository) Release(ctx context.Context, id string, interviewID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"is_available": true,
		"interview_id": nil,
		"updated_at":   model.NormalizeTime(time.Now()),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "interview_id": interviewID}, update)
	if err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missReason(ctx, id, slotserrors.ErrNotHeld)
	}
	return nil
}

func (r *mongoSlotRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "interview_id": nil})
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if result.DeletedCount == 0 {
		return r.missReason(ctx, id, slotserrors.ErrSlotBooked)
	}
	return nil
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
