package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"interviewsync/internal/notifications"
	"interviewsync/pkg/config"
	"interviewsync/pkg/kafka"
	kafka_config "interviewsync/pkg/kafka/config"
	kafka_middleware "interviewsync/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetRedis()
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting notification consumer", "topic", cfg.NotificationTopic)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Failed to load kafka config", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	deliveryLog := cfg.Log.WithComponent("email-delivery")
	emailNotifier, err := notifications.NewEmailNotifierFromConfig(cfg, deliveryLog)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize e-mail notifier", "error", err)
	}

	var handlerOpts []notifications.HandlerOption
	if cfg.Client.Redis != nil {
		handlerOpts = append(handlerOpts, notifications.WithDeduplicator(
			notifications.NewRedisDeduplicator(cfg.Client.Redis, cfg.NotificationDedupTTL),
		))
		deliveryLog.Info("Delivered events are deduplicated in redis", "ttl", cfg.NotificationDedupTTL)
	}

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.NotificationTopic,
		cfg.NotificationGroupID,
		cfg.NotificationDLQTopic,
		notifications.NewEventHandler(emailNotifier, deliveryLog, handlerOpts...),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notification consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close kafka consumer", "error", err)
	}
	cfg.Log.Info("Notification consumer stopped gracefully")
}
