package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	slotrepo "interviewsync/internal/slots/repository"
	slotservice "interviewsync/internal/slots/service"
	slotvalidator "interviewsync/internal/slots/validator"
	userrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/model"
	"interviewsync/pkg/sanitizer"
)

const JobName = "seed"

var slotLengths = []int{30, 45, 60}

func main() {
	candidates := flag.Int("candidates", 5, "number of candidates to create")
	interviewers := flag.Int("interviewers", 3, "number of interviewers to create")
	slotsPerInterviewer := flag.Int("slots", 8, "future slots per interviewer")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required to issue development tokens")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	users := userrepo.NewMongoUserRepository(cfg)
	slots := slotservice.NewSlotService(
		slotrepo.NewMongoSlotRepository(cfg),
		slotrepo.NewScheduleLockRepository(cfg),
		slotvalidator.NewSlotValidator(cfg.Log),
		auth.DefaultPolicy(),
		cfg,
	)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret)

	var created []*model.User
	admin, err := seedUser(ctx, users, model.RoleAdmin, "Admin", "admin@interviewsync.local")
	if err != nil {
		cfg.Log.Fatal("Failed to seed admin", "error", err)
	}
	created = append(created, admin)

	for i := 0; i < *interviewers; i++ {
		u, err := seedUser(ctx, users, model.RoleInterviewer, gofakeit.Name(), "")
		if err != nil {
			cfg.Log.Fatal("Failed to seed interviewer", "error", err)
		}
		created = append(created, u)

		n, err := seedSlots(ctx, slots, u.ID, *slotsPerInterviewer)
		if err != nil {
			cfg.Log.Fatal("Failed to seed slots", "interviewer_id", u.ID, "error", err)
		}
		cfg.Log.Info("Seeded interviewer", "interviewer_id", u.ID, "slots", n)
	}

	for i := 0; i < *candidates; i++ {
		u, err := seedUser(ctx, users, model.RoleCandidate, gofakeit.Name(), "")
		if err != nil {
			cfg.Log.Fatal("Failed to seed candidate", "error", err)
		}
		created = append(created, u)
	}

	fmt.Println("Development tokens:")
	for _, u := range created {
		role, _ := auth.ParseRole(u.Role)
		token, err := issuer.Issue(u.ID, role, cfg.DevTokenTTL)
		if err != nil {
			cfg.Log.Fatal("Failed to issue token", "user_id", u.ID, "error", err)
		}
		fmt.Printf("%-12s %-24s %-32s %s\n", u.Role, u.ID, u.Email, token)
	}

	cfg.Log.Info("Seed completed", "users", len(created))
}

func seedUser(ctx context.Context, repo userrepo.UserRepository, role, name, email string) (*model.User, error) {
	if email == "" {
		email = gofakeit.Email()
	}
	user := &model.User{
		Name:  sanitizer.NormalizeName(name),
		Email: sanitizer.NormalizeEmail(email),
		Role:  role,
	}
	if err := repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// seedSlots lays out back-to-back slots starting tomorrow at 09:00 UTC.
// Slots rejected as overlapping (from an earlier run) are skipped.
func seedSlots(ctx context.Context, svc slotservice.SlotService, interviewerID string, count int) (int, error) {
	owner := auth.Requester{ID: interviewerID, Role: auth.RoleInterviewer}
	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour + 9*time.Hour)

	created := 0
	for i := 0; i < count; i++ {
		minutes := slotLengths[gofakeit.Number(0, len(slotLengths)-1)]
		end := start.Add(time.Duration(minutes) * time.Minute)

		slot := &model.Slot{StartTime: start, EndTime: end}
		if err := svc.Create(ctx, owner, slot); err != nil {
			if !apperrors.IsCode(err, apperrors.CodeConflict) {
				return created, err
			}
		} else {
			created++
		}
		start = end.Add(time.Duration(gofakeit.Number(0, 2)*15) * time.Minute)
	}
	return created, nil
}
