//go:build integration

// Package testutil connects integration tests to a real MongoDB replica set.
// Run them with `go test -tags integration ./...` and TEST_MONGO_URI pointing
// at a replica set, since every booking path uses transactions.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	mongoMigration "interviewsync/internal/migrations/mongo"
	"interviewsync/pkg/client"
	"interviewsync/pkg/config"
	"interviewsync/pkg/logger"
)

const (
	DefaultMongoURI   = "mongodb://localhost:27017/?replicaSet=rs0"
	ConnectionTimeout = 10 * time.Second
	MigrationTimeout  = 30 * time.Second
)

type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// NewMongoHelper connects to TEST_MONGO_URI and migrates a database private
// to t. The database is dropped when t finishes.
func NewMongoHelper(t *testing.T) *MongoHelper {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = DefaultMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary()))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := "interviewsync_it_" + primitive.NewObjectID().Hex()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), MigrationTimeout)
	defer cancelMigrate()
	if err := mongoMigration.RunMigration(migrateCtx, mc, dbName, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate %s: %v", dbName, err)
	}

	h := &MongoHelper{Client: mc, Database: mc.Database(dbName), DBName: dbName}
	t.Cleanup(func() { h.close(t) })
	return h
}

func (m *MongoHelper) close(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Database.Drop(ctx); err != nil {
		t.Logf("warning: failed to drop %s: %v", m.DBName, err)
	}
	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// Config returns what the repositories read from a loaded configuration.
func (m *MongoHelper) Config() *config.Config {
	return &config.Config{
		ServiceName:         "integration-tests",
		MongoDatabaseName:   m.DBName,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		NotificationTimeout: time.Second,
		ReminderLeadTime:    24 * time.Hour,
		Log:                 logger.Discard(),
		Client:              &client.Client{Mongo: m.Client},
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	n, err := m.Database.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collection, err)
	}
	return n
}

// ObjectID returns a fresh 24-hex id, the format every repository expects.
func ObjectID() string {
	return primitive.NewObjectID().Hex()
}
