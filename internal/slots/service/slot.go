package service

import (
	"context"
	"errors"
	slotserrors "interviewsync/internal/slots/errors"
	"interviewsync/internal/slots/repository"
	"interviewsync/internal/slots/validator"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/model"
	"interviewsync/pkg/sanitizer"
	"sync"
)

type SlotService interface {
	Create(ctx context.Context, requester auth.Requester, slot *model.Slot) error
	GetByID(ctx context.Context, requester auth.Requester, id string) (*model.Slot, error)
	List(ctx context.Context, requester auth.Requester, filter model.SlotFilter, limit int, offset int64) ([]*model.Slot, int64, error)
	Update(ctx context.Context, requester auth.Requester, id string, updates *model.SlotUpdate) (*model.Slot, error)
	Delete(ctx context.Context, requester auth.Requester, id string) error
}

type slotService struct {
	repo      repository.SlotRepository
	lockRepo  repository.ScheduleLockRepository
	validator *validator.SlotValidator
	policy    *auth.Policy
	cfg       *config.Config
}

func NewSlotService(
	repo repository.SlotRepository,
	lockRepo repository.ScheduleLockRepository,
	validator *validator.SlotValidator,
	policy *auth.Policy,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		policy:    policy,
		cfg:       cfg,
	}
}

func slotOwner(slot *model.Slot) auth.Ownership {
	return auth.Ownership{InterviewerID: slot.InterviewerID}
}

func (s *slotService) Create(ctx context.Context, requester auth.Requester, slot *model.Slot) error {
	if !s.policy.CanAttempt(requester, auth.OpCreateSlot) {
		return apperrors.Forbidden("Only interviewers and admins can create slots")
	}

	if requester.Role == auth.RoleInterviewer {
		slot.InterviewerID = requester.ID
	}
	slot.InterviewerID = sanitizer.TrimAndNormalize(slot.InterviewerID)

	if !s.policy.Allows(requester, auth.OpCreateSlot, slotOwner(slot)) {
		return apperrors.Forbidden("Cannot create slots for another interviewer")
	}

	slot.ID = ""
	slot.IsAvailable = true
	slot.InterviewID = nil
	slot.StartTime = model.NormalizeTime(slot.StartTime)
	slot.EndTime = model.NormalizeTime(slot.EndTime)

	if err := s.validator.Validate(slot); err != nil {
		s.cfg.Log.Warn("Slot validation failed",
			"interviewer_id", slot.InterviewerID,
			"error", err,
		)
		return validationError(err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.lockRepo.Acquire(txCtx, model.InterviewerLockKey(slot.InterviewerID)); err != nil {
			return apperrors.Storage("Failed to create slot", err)
		}

		conflicting, err := s.repo.FindConflicting(txCtx, slot.InterviewerID, slot.StartTime, slot.EndTime, "")
		if err != nil {
			return apperrors.Storage("Failed to check for overlapping slots", err)
		}
		if conflicting != nil {
			return overlapError(conflicting)
		}

		if err := s.repo.Create(txCtx, slot); err != nil {
			return s.translateError(err, slot.ID, "Failed to create slot")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create slot",
			"interviewer_id", slot.InterviewerID,
			"start_time", slot.StartTime,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Slot created successfully",
		"id", slot.ID,
		"interviewer_id", slot.InterviewerID,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
	)
	return nil
}

func (s *slotService) GetByID(ctx context.Context, requester auth.Requester, id string) (*model.Slot, error) {
	if !s.policy.CanAttempt(requester, auth.OpGetSlot) {
		return nil, apperrors.Forbidden("Not allowed to view slots")
	}
	return s.find(ctx, id)
}

func (s *slotService) find(ctx context.Context, id string) (*model.Slot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err, id, "Failed to retrieve slot")
	}
	return slot, nil
}

// List returns a page of slots. Interviewers that do not filter by
// interviewer see their own slots.
func (s *slotService) List(ctx context.Context, requester auth.Requester, filter model.SlotFilter, limit int, offset int64) ([]*model.Slot, int64, error) {
	if !s.policy.CanAttempt(requester, auth.OpListSlots) {
		return nil, 0, apperrors.Forbidden("Not allowed to list slots")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if requester.Role == auth.RoleInterviewer && filter.InterviewerID == "" {
		filter.InterviewerID = requester.ID
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var slots []*model.Slot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count slots", "error", err)
			errCount = apperrors.Storage("Failed to count slots", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		slots, err = s.repo.FindAll(sharedCtx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list slots",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Storage("Failed to retrieve slots", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return slots, count, nil
}

// Update changes the bounds or availability of an unbooked slot.
func (s *slotService) Update(ctx context.Context, requester auth.Requester, id string, updates *model.SlotUpdate) (*model.Slot, error) {
	if !s.policy.CanAttempt(requester, auth.OpUpdateSlot) {
		return nil, apperrors.Forbidden("Only interviewers and admins can update slots")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(requester, auth.OpUpdateSlot, slotOwner(existing)) {
		return nil, apperrors.Forbidden("Cannot modify another interviewer's slot")
	}
	if updates == nil || updates.Empty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}
	if existing.Held() {
		return nil, apperrors.State("Slot is booked and cannot be modified")
	}

	start, end := existing.StartTime, existing.EndTime
	if updates.StartTime != nil {
		start = model.NormalizeTime(*updates.StartTime)
	}
	if updates.EndTime != nil {
		end = model.NormalizeTime(*updates.EndTime)
	}
	timesChanged := !model.SameInstant(start, existing.StartTime) || !model.SameInstant(end, existing.EndTime)

	if timesChanged {
		startChanged := !model.SameInstant(start, existing.StartTime)
		if err := s.validator.ValidateUpdate(start, end, startChanged); err != nil {
			s.cfg.Log.Warn("Slot update validation failed", "id", id, "error", err)
			return nil, validationError(err)
		}
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.lockRepo.Acquire(txCtx, model.InterviewerLockKey(existing.InterviewerID)); err != nil {
			return apperrors.Storage("Failed to update slot", err)
		}

		if timesChanged {
			conflicting, err := s.repo.FindConflicting(txCtx, existing.InterviewerID, start, end, id)
			if err != nil {
				return apperrors.Storage("Failed to check for overlapping slots", err)
			}
			if conflicting != nil {
				return overlapError(conflicting)
			}
			if err := s.repo.UpdateTimes(txCtx, id, start, end); err != nil {
				return s.translateError(err, id, "Failed to update slot")
			}
		}

		if updates.IsAvailable != nil {
			if err := s.repo.SetAvailability(txCtx, id, *updates.IsAvailable); err != nil {
				return s.translateError(err, id, "Failed to update slot")
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update slot", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Slot updated successfully",
		"id", id,
		"start_time", start,
		"end_time", end,
	)
	return s.find(ctx, id)
}

func (s *slotService) Delete(ctx context.Context, requester auth.Requester, id string) error {
	if !s.policy.CanAttempt(requester, auth.OpDeleteSlot) {
		return apperrors.Forbidden("Only interviewers and admins can delete slots")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.Allows(requester, auth.OpDeleteSlot, slotOwner(existing)) {
		return apperrors.Forbidden("Cannot delete another interviewer's slot")
	}
	if existing.Held() {
		return apperrors.Conflict("Slot is booked; cancel or delete the interview first")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, slotserrors.ErrSlotBooked) {
			return apperrors.Conflict("Slot is booked; cancel or delete the interview first")
		}
		return s.translateError(err, id, "Failed to delete slot")
	}

	s.cfg.Log.Info("Slot deleted successfully", "id", id, "interviewer_id", existing.InterviewerID)
	return nil
}

func (s *slotService) translateError(err error, id string, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", id)
	case errors.Is(err, slotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, slotserrors.ErrInvalidTimeRange):
		return apperrors.Validation("Slot validation failed", map[string]any{
			"fields": validator.ValidationErrors{{Field: "end_time", Message: err.Error()}},
		})
	case errors.Is(err, slotserrors.ErrSlotBooked), errors.Is(err, slotserrors.ErrSlotUnavailable):
		return apperrors.State("Slot is booked and cannot be modified")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Storage(message, err)
}

// overlapError is a 409 that still matches slotserrors.ErrOverlap.
func overlapError(conflicting *model.Slot) error {
	appErr := apperrors.Conflict("Slot overlaps an existing slot of the interviewer").
		WithDetails(map[string]any{"conflicting_slot_id": conflicting.ID})
	appErr.Err = slotserrors.ErrOverlap
	return appErr
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Slot validation failed", map[string]any{
			"fields": verrs,
		})
	}
	return apperrors.Validation("Slot validation failed", map[string]any{
		"error": err.Error(),
	})
}
