package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	interviewrepo "interviewsync/internal/interviews/repository"
	interviewservice "interviewsync/internal/interviews/service"
	interviewvalidator "interviewsync/internal/interviews/validator"
	"interviewsync/internal/notifications"
	slotrepo "interviewsync/internal/slots/repository"
	userrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	"interviewsync/pkg/lock"
)

const ServiceName = "reminders"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	notifier, closeNotifier, err := notifications.FromConfig(cfg, ServiceName)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to initialize notifications", "error", err)
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			cfg.Log.Error("Failed to close notification transport", "error", err)
		}
	}()

	svc := interviewservice.NewInterviewService(
		interviewrepo.NewMongoInterviewRepository(cfg),
		slotrepo.NewMongoSlotRepository(cfg),
		slotrepo.NewScheduleLockRepository(cfg),
		userrepo.NewMongoUserRepository(cfg),
		notifier,
		lock.NewNoopLocker(),
		interviewservice.NewVideoLinkGenerator(cfg.VideoLinkBaseURL),
		interviewvalidator.NewInterviewValidator(cfg.Log),
		auth.DefaultPolicy(),
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting reminder worker",
		"interval", cfg.ReminderInterval,
		"lead_time", cfg.ReminderLeadTime,
	)
	run(ctx, cfg, svc)
	cfg.Log.Info("Reminder worker stopped")
}

func run(ctx context.Context, cfg *config.Config, svc interviewservice.InterviewService) {
	log := cfg.Log.WithComponent("reminder-scheduler")
	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		sent, err := svc.SendDueReminders(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error("Reminder run failed", "error", err)
		case sent > 0:
			log.Info("Reminders sent", "count", sent)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
