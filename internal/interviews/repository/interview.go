package repository

import (
	"context"
	"errors"
	"fmt"
	interviewerrors "interviewsync/internal/interviews/errors"
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
	CollectionName = "Interviews"
)

type mongoInterviewRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type InterviewRepository interface {
	Create(ctx context.Context, interview *model.Interview) error
	FindByID(ctx context.Context, id string) (*model.Interview, error)
	FindAll(ctx context.Context, filter model.InterviewFilter, limit int, offset int64) ([]*model.Interview, error)
	Count(ctx context.Context, filter model.InterviewFilter) (int64, error)
	FindSchedulingConflict(ctx context.Context, candidateID, interviewerID string, start, end time.Time, excludeID string) (*model.Interview, error)
	Update(ctx context.Context, id string, expected model.InterviewStatus, patch *model.InterviewUpdate) error
	Cancel(ctx context.Context, id string, expected model.InterviewStatus) error
	Rebook(ctx context.Context, id string, expected model.InterviewStatus, slot *model.Slot) error
	Delete(ctx context.Context, id string) error
	FindDueReminders(ctx context.Context, from, to time.Time, limit int) ([]*model.Interview, error)
	MarkReminded(ctx context.Context, id string, at time.Time) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoInterviewRepository(cfg *config.Config) InterviewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInterviewRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoInterviewRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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
		return fmt.Errorf("%w: %s", interviewerrors.ErrInvalidID, id)
	}
	return nil
}

// Create inserts a SCHEDULED interview holding its slot.
func (r *mongoInterviewRepository) Create(ctx context.Context, interview *model.Interview) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if !interview.EndTime.After(interview.StartTime) {
		return interviewerrors.ErrInvalidTimeRange
	}

	now := model.NormalizeTime(time.Now())
	if interview.ID == "" {
		interview.ID = primitive.NewObjectID().Hex()
	}
	if interview.Status == "" {
		interview.Status = model.StatusScheduled
	}
	hold := interview.SlotID
	interview.SlotHold = &hold
	interview.StartTime = model.NormalizeTime(interview.StartTime)
	interview.EndTime = model.NormalizeTime(interview.EndTime)
	interview.CreatedAt = now
	interview.UpdatedAt = now
	interview.Revision = 1

	if _, err := r.collection.InsertOne(ctx, interview); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", interviewerrors.ErrSlotTaken, interview.SlotID)
		}
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

func (r *mongoInterviewRepository) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return nil, err
	}

	var interview model.Interview
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&interview)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", interviewerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find interview: %w", err)
	}
	return &interview, nil
}

func buildFilter(f model.InterviewFilter) bson.M {
	filter := bson.M{}
	if f.CandidateID != "" {
		filter["candidate_id"] = f.CandidateID
	}
	if f.InterviewerID != "" {
		filter["interviewer_id"] = f.InterviewerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (r *mongoInterviewRepository) FindAll(ctx context.Context, f model.InterviewFilter, limit int, offset int64) ([]*model.Interview, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer cursor.Close(ctx)

	interviews := []*model.Interview{}
	if err = cursor.All(ctx, &interviews); err != nil {
		return nil, fmt.Errorf("failed to decode interviews: %w", err)
	}
	return interviews, nil
}

func (r *mongoInterviewRepository) Count(ctx context.Context, f model.InterviewFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("failed to count interviews: %w", err)
	}
	return count, nil
}

// FindSchedulingConflict returns a non-cancelled interview of either
// participant whose range touches [start, end]. Bounds are inclusive, so
// back-to-back interviews of the same person conflict.
func (r *mongoInterviewRepository) FindSchedulingConflict(ctx context.Context, candidateID, interviewerID string, start, end time.Time, excludeID string) (*model.Interview, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"$or": bson.A{
			bson.M{"candidate_id": candidateID},
			bson.M{"interviewer_id": interviewerID},
		},
		"status":     bson.M{"$ne": model.StatusCancelled},
		"start_time": bson.M{"$lte": model.NormalizeTime(end)},
		"end_time":   bson.M{"$gte": model.NormalizeTime(start)},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	var interview model.Interview
	err := r.collection.FindOne(ctx, filter).Decode(&interview)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check scheduling conflicts: %w", err)
	}
	return &interview, nil
}

// conditionalUpdate applies update only while the interview is still in the
// expected status, bumping its revision.
func (r *mongoInterviewRepository) conditionalUpdate(ctx context.Context, id string, expected model.InterviewStatus, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}
	update["$inc"] = bson.M{"revision": 1}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": expected}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", interviewerrors.ErrSlotTaken, id)
		}
		return fmt.Errorf("failed to update interview: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missReason(ctx, id)
	}
	return nil
}

func (r *mongoInterviewRepository) missReason(ctx context.Context, id string) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check interview existence: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", interviewerrors.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", interviewerrors.ErrStatusChanged, id)
}

// Update applies the descriptive fields and status of patch. Cancellation
// goes through Cancel so the slot hold is dropped with it.
func (r *mongoInterviewRepository) Update(ctx context.Context, id string, expected model.InterviewStatus, patch *model.InterviewUpdate) error {
	set := bson.M{"updated_at": model.NormalizeTime(time.Now())}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.VideoLink != nil {
		set["video_link"] = *patch.VideoLink
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	return r.conditionalUpdate(ctx, id, expected, bson.M{"$set": set})
}

func (r *mongoInterviewRepository) Cancel(ctx context.Context, id string, expected model.InterviewStatus) error {
	return r.conditionalUpdate(ctx, id, expected, bson.M{
		"$set": bson.M{
			"status":     model.StatusCancelled,
			"updated_at": model.NormalizeTime(time.Now()),
		},
		"$unset": bson.M{"slot_hold": ""},
	})
}

// Rebook moves the interview onto slot, copying its bounds, and returns it
// to SCHEDULED. A pending reminder is reset.
func (r *mongoInterviewRepository) Rebook(ctx context.Context, id string, expected model.InterviewStatus, slot *model.Slot) error {
	return r.conditionalUpdate(ctx, id, expected, bson.M{
		"$set": bson.M{
			"slot_id":    slot.ID,
			"slot_hold":  slot.ID,
			"start_time": model.NormalizeTime(slot.StartTime),
			"end_time":   model.NormalizeTime(slot.EndTime),
			"status":     model.StatusScheduled,
			"updated_at": model.NormalizeTime(time.Now()),
		},
		"$unset": bson.M{"reminder_sent_at": ""},
	})
}

func (r *mongoInterviewRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete interview: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", interviewerrors.ErrNotFound, id)
	}
	return nil
}

// FindDueReminders returns scheduled, not yet reminded interviews starting
// within [from, to].
func (r *mongoInterviewRepository) FindDueReminders(ctx context.Context, from, to time.Time, limit int) ([]*model.Interview, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status": model.StatusScheduled,
		"start_time": bson.M{
			"$gte": model.NormalizeTime(from),
			"$lte": model.NormalizeTime(to),
		},
		"reminder_sent_at": bson.M{"$exists": false},
	}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	interviews := []*model.Interview{}
	if err = cursor.All(ctx, &interviews); err != nil {
		return nil, fmt.Errorf("failed to decode due reminders: %w", err)
	}
	return interviews, nil
}

// MarkReminded records the reminder once. It reports false when another
// worker marked it first or the interview is no longer scheduled.
func (r *mongoInterviewRepository) MarkReminded(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id":              id,
		"status":           model.StatusScheduled,
		"reminder_sent_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"reminder_sent_at": model.NormalizeTime(at)}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *mongoInterviewRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
