package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	mongoMigration "interviewsync/internal/migrations/mongo"
	"interviewsync/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	dryRun := flag.Bool("dry-run", false, "print the collections and indexes without touching the database")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration deadline")
	flag.Parse()

	if *dryRun {
		for _, line := range mongoMigration.Plan() {
			fmt.Println(line)
		}
		return
	}

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	started := time.Now()
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cancel()
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "database", cfg.MongoDatabaseName, "error", err)
	}
	cfg.Log.Info("Migration finished", "database", cfg.MongoDatabaseName, "took", time.Since(started).Round(time.Millisecond))
}
