package repository

import (
	"context"
	"fmt"
	"interviewsync/pkg/config"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ScheduleLocksCollection = "Schedule_locks"
)

// ScheduleLockRepository touches one document per participant inside a
// transaction. Two transactions touching the same document conflict, so the
// later one retries and sees the earlier one's writes.
type ScheduleLockRepository interface {
	Acquire(ctx context.Context, keys ...string) error
}

type mongoScheduleLockRepository struct {
	collection *mongo.Collection
}

func NewScheduleLockRepository(cfg *config.Config) ScheduleLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleLockRepository{
		collection: db.Collection(ScheduleLocksCollection),
	}
}

func (r *mongoScheduleLockRepository) Acquire(ctx context.Context, keys ...string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	now := time.Now().UTC().Truncate(time.Millisecond)
	opts := options.Update().SetUpsert(true)

	var last string
	for _, key := range sorted {
		if key == "" || key == last {
			continue
		}
		last = key

		update := bson.M{
			"$inc": bson.M{"version": int64(1)},
			"$set": bson.M{"updated_at": now},
		}
		if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
			return fmt.Errorf("failed to acquire schedule lock %s: %w", key, err)
		}
	}
	return nil
}
