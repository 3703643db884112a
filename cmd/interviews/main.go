package main

import (
	interviewhandler "interviewsync/internal/interviews/handler"
	interviewrepo "interviewsync/internal/interviews/repository"
	interviewservice "interviewsync/internal/interviews/service"
	interviewvalidator "interviewsync/internal/interviews/validator"
	"interviewsync/internal/notifications"
	slothandler "interviewsync/internal/slots/handler"
	slotrepo "interviewsync/internal/slots/repository"
	slotservice "interviewsync/internal/slots/service"
	slotvalidator "interviewsync/internal/slots/validator"
	userrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/app"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	"interviewsync/pkg/lock"
)

const ServiceName = "interviews"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Interviews service")

	notifier, closeNotifier, err := notifications.FromConfig(cfg, ServiceName)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to initialize notifications", "error", err)
	}

	slots, interviews := initServices(cfg, notifier)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func() {
		if err := closeNotifier(); err != nil {
			cfg.Log.Error("Failed to close notification transport", "error", err)
		}
	})
	serverApp.SetApp(
		app.NewTokenVerifier(cfg),
		slothandler.NewSlotHandler(slots, cfg.Log),
		interviewhandler.NewInterviewHandler(interviews, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, notifier notifications.Notifier) (slotservice.SlotService, interviewservice.InterviewService) {
	policy := auth.DefaultPolicy()
	slotRepo := slotrepo.NewMongoSlotRepository(cfg)
	lockRepo := slotrepo.NewScheduleLockRepository(cfg)

	locker := lock.NewNoopLocker()
	if cfg.Client.Redis != nil {
		locker = lock.NewRedisLocker(cfg.Client.Redis, cfg.SlotLockTTL)
		cfg.Log.Info("Slot booking lock enabled", "ttl", cfg.SlotLockTTL)
	}

	slotService := slotservice.NewSlotService(
		slotRepo,
		lockRepo,
		slotvalidator.NewSlotValidator(cfg.Log),
		policy,
		cfg,
	)

	interviewService := interviewservice.NewInterviewService(
		interviewrepo.NewMongoInterviewRepository(cfg),
		slotRepo,
		lockRepo,
		userrepo.NewMongoUserRepository(cfg),
		notifier,
		locker,
		interviewservice.NewVideoLinkGenerator(cfg.VideoLinkBaseURL),
		interviewvalidator.NewInterviewValidator(cfg.Log),
		policy,
		cfg,
	)

	cfg.Log.Info("Interview services initialized", "database", cfg.MongoDatabaseName)
	return slotService, interviewService
}
