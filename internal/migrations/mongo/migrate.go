package mongo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	interviewsrepo "interviewsync/internal/interviews/repository"
	"interviewsync/internal/migrations/mongo/validators"
	slotsrepo "interviewsync/internal/slots/repository"
	usersrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/logger"
)

var (
	SlotsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "interviewer_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "start_time", Value: 1}, {Key: "end_time", Value: 1}}},
		{Keys: bson.D{{Key: "is_available", Value: 1}}},
	}

	InterviewsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "candidate_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "interviewer_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "start_time", Value: 1}, {Key: "end_time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "slot_id", Value: 1}}},
		// At most one interview holds a slot; cancelled interviews drop the field.
		{
			Keys: bson.D{{Key: "slot_hold", Value: 1}},
			Options: options.Index().
				SetName("slot_hold_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slot_hold": bson.M{"$exists": true}}),
		},
	}

	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the service owns. Schedule_locks holds
// only per-participant counters and has no validator.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		slotsrepo.CollectionName: {
			Indexes:   SlotsIndexes,
			Validator: validators.SlotValidator,
		},
		interviewsrepo.CollectionName: {
			Indexes:   InterviewsIndexes,
			Validator: validators.InterviewValidator,
		},
		usersrepo.CollectionName: {
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
		slotsrepo.ScheduleLocksCollection: {},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	defs := Collections()
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		def := defs[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

// Plan describes what RunMigration ensures, one line per collection followed
// by its indexes, ordered by collection name.
func Plan() []string {
	defs := Collections()
	var lines []string
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		def := defs[name]
		lines = append(lines, fmt.Sprintf("collection %s validator=%t", name, def.Validator != nil))
		for _, idx := range def.Indexes {
			lines = append(lines, "  index "+describeIndex(idx))
		}
	}
	return lines
}

func describeIndex(idx mongo.IndexModel) string {
	keys, _ := idx.Keys.(bson.D)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k.Key, k.Value))
	}
	desc := strings.Join(parts, ",")
	if opts := idx.Options; opts != nil {
		if opts.Unique != nil && *opts.Unique {
			desc += " unique"
		}
		if opts.PartialFilterExpression != nil {
			desc += " partial"
		}
	}
	return desc
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
