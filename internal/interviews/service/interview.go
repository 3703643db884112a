package service

import (
	"context"
	"errors"
	interviewerrors "interviewsync/internal/interviews/errors"
	"interviewsync/internal/interviews/repository"
	"interviewsync/internal/interviews/validator"
	"interviewsync/internal/notifications"
	slotserrors "interviewsync/internal/slots/errors"
	slotsrepo "interviewsync/internal/slots/repository"
	usersrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/lock"
	"interviewsync/pkg/model"
	"interviewsync/pkg/sanitizer"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultNotificationTimeout = 10 * time.Second
	defaultReminderBatchSize   = 100
)

type InterviewService interface {
	Book(ctx context.Context, requester auth.Requester, req *model.BookingRequest) (*model.InterviewDetails, error)
	GetByID(ctx context.Context, requester auth.Requester, id string) (*model.InterviewDetails, error)
	List(ctx context.Context, requester auth.Requester, filter model.InterviewFilter, limit int, offset int64) ([]*model.InterviewDetails, int64, error)
	Update(ctx context.Context, requester auth.Requester, id string, patch *model.InterviewUpdate) (*model.InterviewDetails, error)
	Cancel(ctx context.Context, requester auth.Requester, id string, reason string) (*model.InterviewDetails, error)
	Delete(ctx context.Context, requester auth.Requester, id string) error
	Rebook(ctx context.Context, requester auth.Requester, id string, slotID string) (*model.InterviewDetails, error)
	SendDueReminders(ctx context.Context) (int, error)
}

type interviewService struct {
	repo       repository.InterviewRepository
	slots      slotsrepo.SlotRepository
	locks      slotsrepo.ScheduleLockRepository
	users      usersrepo.UserRepository
	notifier   notifications.Notifier
	locker     lock.Locker
	videoLinks VideoLinkGenerator
	validator  *validator.InterviewValidator
	policy     *auth.Policy
	cfg        *config.Config

	now   func() time.Time
	async func(func())
}

func NewInterviewService(
	repo repository.InterviewRepository,
	slots slotsrepo.SlotRepository,
	locks slotsrepo.ScheduleLockRepository,
	users usersrepo.UserRepository,
	notifier notifications.Notifier,
	locker lock.Locker,
	videoLinks VideoLinkGenerator,
	validator *validator.InterviewValidator,
	policy *auth.Policy,
	cfg *config.Config,
) InterviewService {
	return &interviewService{
		repo:       repo,
		slots:      slots,
		locks:      locks,
		users:      users,
		notifier:   notifier,
		locker:     locker,
		videoLinks: videoLinks,
		validator:  validator,
		policy:     policy,
		cfg:        cfg,
		now:        time.Now,
		async:      func(fn func()) { go fn() },
	}
}

func interviewOwner(iv *model.Interview) auth.Ownership {
	return auth.Ownership{CandidateID: iv.CandidateID, InterviewerID: iv.InterviewerID}
}

func participantLocks(iv *model.Interview) []string {
	return []string{
		model.CandidateLockKey(iv.CandidateID),
		model.InterviewerLockKey(iv.InterviewerID),
	}
}

// Book creates an interview on an available slot. The slot claim and the
// interview insert commit together; notifications go out afterwards and never
// affect the result.
func (s *interviewService) Book(ctx context.Context, requester auth.Requester, req *model.BookingRequest) (*model.InterviewDetails, error) {
	if !s.policy.CanAttempt(requester, auth.OpBookInterview) {
		return nil, apperrors.Forbidden("Only candidates and admins can book interviews")
	}

	if !requester.IsAdmin() {
		req.CandidateID = requester.ID
	}
	req.Title = sanitizer.NormalizeTitle(req.Title)
	req.Description = sanitizer.NormalizeText(req.Description)
	req.StartTime = model.NormalizeTime(req.StartTime)
	req.EndTime = model.NormalizeTime(req.EndTime)

	if err := s.validator.ValidateBooking(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "slot_id", req.SlotID, "error", err)
		return nil, validationError(err)
	}
	if req.CandidateID == "" {
		return nil, fieldError("candidate_id", "candidate_id is required")
	}
	if !s.policy.Allows(requester, auth.OpBookInterview, auth.Ownership{CandidateID: req.CandidateID}) {
		return nil, apperrors.Forbidden("Cannot book interviews for another candidate")
	}

	slot, err := s.slots.FindByID(ctx, req.SlotID)
	if err != nil {
		return nil, s.translateError(err, req.SlotID, "Failed to retrieve slot")
	}
	if !slot.Bookable() {
		return nil, apperrors.SlotUnavailable(slot.ID)
	}
	if slot.InterviewerID != req.InterviewerID {
		return nil, fieldError("interviewer_id", "interviewer_id does not match the slot's interviewer")
	}
	if !model.SameInstant(slot.StartTime, req.StartTime) || !model.SameInstant(slot.EndTime, req.EndTime) {
		return nil, fieldError("start_time", "start_time and end_time must match the slot exactly")
	}

	interview := &model.Interview{
		ID:            primitive.NewObjectID().Hex(),
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		Status:        model.StatusScheduled,
		CandidateID:   req.CandidateID,
		InterviewerID: slot.InterviewerID,
		SlotID:        slot.ID,
	}

	if link, err := s.videoLinks.Generate(ctx); err != nil {
		s.cfg.Log.Warn("Failed to generate video link, booking without one",
			"interview_id", interview.ID,
			"error", err,
		)
	} else {
		interview.VideoLink = link
	}

	err = s.withSlotLock(ctx, slot.ID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := s.locks.Acquire(txCtx, participantLocks(interview)...); err != nil {
				return apperrors.Storage("Failed to book interview", err)
			}

			if err := s.checkConflict(txCtx, interview, slot.StartTime, slot.EndTime, ""); err != nil {
				return err
			}

			if err := s.slots.Claim(txCtx, slot, interview.ID); err != nil {
				return s.translateError(err, slot.ID, "Failed to claim slot")
			}
			if err := s.repo.Create(txCtx, interview); err != nil {
				return s.translateError(err, interview.ID, "Failed to create interview")
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, apperrors.Conflict("Slot is being booked by another request")
		}
		s.cfg.Log.Warn("Failed to book interview",
			"slot_id", slot.ID,
			"candidate_id", interview.CandidateID,
			"error", err,
		)
		return nil, s.translateError(err, slot.ID, "Failed to book interview")
	}

	s.cfg.Log.Info("Interview booked successfully",
		"interview_id", interview.ID,
		"slot_id", slot.ID,
		"candidate_id", interview.CandidateID,
		"interviewer_id", interview.InterviewerID,
	)

	details := s.withParticipants(ctx, interview)[0]
	s.notifyBooked(ctx, details)
	return details, nil
}

// checkConflict fails when either participant holds another non-cancelled
// interview touching [start, end].
func (s *interviewService) checkConflict(ctx context.Context, iv *model.Interview, start, end time.Time, excludeID string) error {
	conflict, err := s.repo.FindSchedulingConflict(ctx, iv.CandidateID, iv.InterviewerID, start, end, excludeID)
	if err != nil {
		return apperrors.Storage("Failed to check scheduling conflicts", err)
	}
	if conflict == nil {
		return nil
	}

	participant := "interviewer"
	if conflict.CandidateID == iv.CandidateID {
		participant = "candidate"
	}
	return apperrors.SchedulingConflict(participant, conflict.ID)
}

func (s *interviewService) GetByID(ctx context.Context, requester auth.Requester, id string) (*model.InterviewDetails, error) {
	if !s.policy.CanAttempt(requester, auth.OpGetInterview) {
		return nil, apperrors.Forbidden("Not allowed to view interviews")
	}

	interview, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(requester, auth.OpGetInterview, interviewOwner(interview)) {
		return nil, apperrors.Forbidden("Not allowed to view this interview")
	}

	return s.withParticipants(ctx, interview)[0], nil
}

func (s *interviewService) find(ctx context.Context, id string) (*model.Interview, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Interview ID cannot be empty")
	}
	interview, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err, id, "Failed to retrieve interview")
	}
	return interview, nil
}

// List scopes candidates and interviewers to their own interviews. Only
// admins may filter by participant.
func (s *interviewService) List(ctx context.Context, requester auth.Requester, filter model.InterviewFilter, limit int, offset int64) ([]*model.InterviewDetails, int64, error) {
	if !s.policy.CanAttempt(requester, auth.OpListInterviews) {
		return nil, 0, apperrors.Forbidden("Not allowed to list interviews")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("Invalid status filter: " + string(filter.Status))
	}

	if s.policy.Access(auth.OpListInterviews, requester.Role) != auth.Any {
		scoped := model.InterviewFilter{Status: filter.Status}
		switch requester.Role {
		case auth.RoleCandidate:
			scoped.CandidateID = requester.ID
		case auth.RoleInterviewer:
			scoped.InterviewerID = requester.ID
		}
		filter = scoped
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var interviews []*model.Interview
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count interviews", "error", err)
			errCount = apperrors.Storage("Failed to count interviews", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		interviews, err = s.repo.FindAll(sharedCtx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list interviews",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Storage("Failed to retrieve interviews", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return s.withParticipants(ctx, interviews...), count, nil
}

// Update patches descriptive fields and moves status along the allowed
// transitions. Moving to CANCELLED is a cancellation and releases the slot.
func (s *interviewService) Update(ctx context.Context, requester auth.Requester, id string, patch *model.InterviewUpdate) (*model.InterviewDetails, error) {
	if !s.policy.CanAttempt(requester, auth.OpUpdateInterview) {
		return nil, apperrors.Forbidden("Only interviewers and admins can update interviews")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(requester, auth.OpUpdateInterview, interviewOwner(existing)) {
		return nil, apperrors.Forbidden("Not allowed to update this interview")
	}
	if patch == nil || patch.Empty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	s.sanitizeUpdate(patch)
	if err := s.validator.Validate(patch); err != nil {
		s.cfg.Log.Warn("Interview update validation failed", "interview_id", id, "error", err)
		return nil, validationError(err)
	}

	if patch.Status != nil && *patch.Status == existing.Status {
		patch.Status = nil
	}
	if patch.Status != nil {
		if *patch.Status == model.StatusCancelled {
			fields := *patch
			fields.Status = nil
			return s.cancel(ctx, existing, "", &fields)
		}
		if !existing.Status.CanTransitionTo(*patch.Status) {
			return nil, apperrors.State("Cannot change interview status from " + string(existing.Status) + " to " + string(*patch.Status))
		}
	}
	if patch.Empty() {
		return s.withParticipants(ctx, existing)[0], nil
	}

	if err := s.repo.Update(ctx, id, existing.Status, patch); err != nil {
		return nil, s.translateError(err, id, "Failed to update interview")
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Interview updated successfully",
		"interview_id", id,
		"status", updated.Status,
	)
	return s.withParticipants(ctx, updated)[0], nil
}

func (s *interviewService) sanitizeUpdate(patch *model.InterviewUpdate) {
	if patch.Title != nil {
		v := sanitizer.NormalizeTitle(*patch.Title)
		patch.Title = &v
	}
	if patch.Description != nil {
		v := sanitizer.NormalizeText(*patch.Description)
		patch.Description = &v
	}
	if patch.Notes != nil {
		v := sanitizer.NormalizeText(*patch.Notes)
		patch.Notes = &v
	}
	if patch.VideoLink != nil {
		v := sanitizer.NormalizeURL(*patch.VideoLink)
		patch.VideoLink = &v
	}
}

// Cancel marks the interview CANCELLED and releases its slot. Cancelling an
// already cancelled interview succeeds without side effects.
func (s *interviewService) Cancel(ctx context.Context, requester auth.Requester, id string, reason string) (*model.InterviewDetails, error) {
	if !s.policy.CanAttempt(requester, auth.OpCancelInterview) {
		return nil, apperrors.Forbidden("Not allowed to cancel interviews")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(requester, auth.OpCancelInterview, interviewOwner(existing)) {
		return nil, apperrors.Forbidden("Not allowed to cancel this interview")
	}

	req := model.CancelRequest{Reason: sanitizer.NormalizeText(reason)}
	if err := s.validator.Validate(&req); err != nil {
		return nil, validationError(err)
	}

	return s.cancel(ctx, existing, req.Reason, nil)
}

func (s *interviewService) cancel(ctx context.Context, existing *model.Interview, reason string, fields *model.InterviewUpdate) (*model.InterviewDetails, error) {
	switch existing.Status {
	case model.StatusCancelled:
		s.cfg.Log.Info("Interview already cancelled", "interview_id", existing.ID)
		return s.withParticipants(ctx, existing)[0], nil
	case model.StatusCompleted:
		return nil, apperrors.State("Completed interviews cannot be cancelled")
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.locks.Acquire(txCtx, participantLocks(existing)...); err != nil {
			return apperrors.Storage("Failed to cancel interview", err)
		}
		if fields != nil && fields.HasFieldChanges() {
			if err := s.repo.Update(txCtx, existing.ID, existing.Status, fields); err != nil {
				return s.translateError(err, existing.ID, "Failed to cancel interview")
			}
		}
		if err := s.repo.Cancel(txCtx, existing.ID, existing.Status); err != nil {
			return s.translateError(err, existing.ID, "Failed to cancel interview")
		}
		return s.releaseSlot(txCtx, existing)
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to cancel interview", "interview_id", existing.ID, "error", err)
		return nil, err
	}

	cancelled, err := s.find(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = notifications.DefaultCancelReason
	}
	s.cfg.Log.Info("Interview cancelled successfully",
		"interview_id", existing.ID,
		"slot_id", existing.SlotID,
		"reason", reason,
	)

	details := s.withParticipants(ctx, cancelled)[0]
	s.notifyCancelled(ctx, details, reason)
	return details, nil
}

// releaseSlot frees the slot held by iv. A slot that is already free or held
// by something else is logged and left alone.
func (s *interviewService) releaseSlot(ctx context.Context, iv *model.Interview) error {
	err := s.slots.Release(ctx, iv.SlotID, iv.ID)
	if err == nil {
		return nil
	}
	if errors.Is(err, slotserrors.ErrNotHeld) || errors.Is(err, slotserrors.ErrNotFound) {
		s.cfg.Log.Warn("Slot was not held by the interview",
			"interview_id", iv.ID,
			"slot_id", iv.SlotID,
			"error", err,
		)
		return nil
	}
	return apperrors.Storage("Failed to release slot", err)
}

// Delete removes the interview and frees its slot. No notification is sent.
func (s *interviewService) Delete(ctx context.Context, requester auth.Requester, id string) error {
	if !s.policy.CanAttempt(requester, auth.OpDeleteInterview) {
		return apperrors.Forbidden("Only interviewers and admins can delete interviews")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.Allows(requester, auth.OpDeleteInterview, interviewOwner(existing)) {
		return apperrors.Forbidden("Not allowed to delete this interview")
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.locks.Acquire(txCtx, participantLocks(existing)...); err != nil {
			return apperrors.Storage("Failed to delete interview", err)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return s.translateError(err, id, "Failed to delete interview")
		}
		if existing.Status == model.StatusCancelled {
			return nil
		}
		return s.releaseSlot(txCtx, existing)
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to delete interview", "interview_id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Interview deleted successfully", "interview_id", id, "slot_id", existing.SlotID)
	return nil
}

// Rebook moves a scheduled or rescheduled interview onto another slot of the
// same interviewer and returns it to SCHEDULED.
func (s *interviewService) Rebook(ctx context.Context, requester auth.Requester, id string, slotID string) (*model.InterviewDetails, error) {
	if !s.policy.CanAttempt(requester, auth.OpRebookInterview) {
		return nil, apperrors.Forbidden("Only candidates and admins can rebook interviews")
	}

	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allows(requester, auth.OpRebookInterview, interviewOwner(existing)) {
		return nil, apperrors.Forbidden("Not allowed to rebook this interview")
	}

	req := model.RebookRequest{SlotID: slotID}
	if err := s.validator.Validate(&req); err != nil {
		return nil, validationError(err)
	}
	if !existing.Status.Rebookable() {
		return nil, apperrors.State("Only scheduled or rescheduled interviews can be rebooked")
	}
	if slotID == existing.SlotID {
		return nil, fieldError("slot_id", "slot_id must differ from the current slot")
	}

	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, s.translateError(err, slotID, "Failed to retrieve slot")
	}
	if !slot.Bookable() {
		return nil, apperrors.SlotUnavailable(slot.ID)
	}
	if slot.InterviewerID != existing.InterviewerID {
		return nil, fieldError("slot_id", "slot belongs to a different interviewer")
	}
	if !slot.StartTime.After(s.now()) {
		return nil, fieldError("slot_id", "slot has already started")
	}

	err = s.withSlotLock(ctx, slot.ID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := s.locks.Acquire(txCtx, participantLocks(existing)...); err != nil {
				return apperrors.Storage("Failed to rebook interview", err)
			}
			if err := s.checkConflict(txCtx, existing, slot.StartTime, slot.EndTime, existing.ID); err != nil {
				return err
			}
			if err := s.slots.Claim(txCtx, slot, existing.ID); err != nil {
				return s.translateError(err, slot.ID, "Failed to claim slot")
			}
			if err := s.releaseSlot(txCtx, existing); err != nil {
				return err
			}
			if err := s.repo.Rebook(txCtx, existing.ID, existing.Status, slot); err != nil {
				return s.translateError(err, existing.ID, "Failed to rebook interview")
			}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, apperrors.Conflict("Slot is being booked by another request")
		}
		s.cfg.Log.Warn("Failed to rebook interview", "interview_id", id, "slot_id", slotID, "error", err)
		return nil, s.translateError(err, id, "Failed to rebook interview")
	}

	rebooked, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Interview rebooked successfully",
		"interview_id", id,
		"old_slot_id", existing.SlotID,
		"new_slot_id", slot.ID,
	)

	details := s.withParticipants(ctx, rebooked)[0]
	s.notifyBooked(ctx, details)
	return details, nil
}

// SendDueReminders notifies candidates of scheduled interviews starting
// within the reminder lead time. Each interview is marked before sending, so
// concurrent workers never remind twice.
func (s *interviewService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	batch := s.cfg.ReminderBatchSize
	if batch <= 0 {
		batch = defaultReminderBatchSize
	}

	due, err := s.repo.FindDueReminders(ctx, now, now.Add(s.cfg.ReminderLeadTime), batch)
	if err != nil {
		s.cfg.Log.Error("Failed to find due reminders", "error", err)
		return 0, apperrors.Storage("Failed to find due reminders", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	sent := 0
	for _, details := range s.withParticipants(ctx, due...) {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		marked, err := s.repo.MarkReminded(ctx, details.ID, now)
		if err != nil {
			s.cfg.Log.Error("Failed to mark reminder", "interview_id", details.ID, "error", err)
			continue
		}
		if !marked {
			continue
		}

		notifyCtx, cancel := context.WithTimeout(ctx, s.notificationTimeout())
		err = s.notifier.NotifyReminder(notifyCtx, notifications.ContactFromSummary(details.Candidate), notifications.SummaryOf(details.Interview))
		cancel()
		if err != nil {
			s.cfg.Log.Warn("Failed to send interview reminder", "interview_id", details.ID, "error", err)
			continue
		}
		sent++
	}

	s.cfg.Log.Info("Interview reminders processed", "due", len(due), "sent", sent)
	return sent, nil
}

// withParticipants resolves participant summaries. Users that cannot be
// found keep an id-only summary.
func (s *interviewService) withParticipants(ctx context.Context, interviews ...*model.Interview) []*model.InterviewDetails {
	ids := make([]string, 0, len(interviews)*2)
	seen := make(map[string]struct{}, len(interviews)*2)
	for _, iv := range interviews {
		for _, id := range []string{iv.CandidateID, iv.InterviewerID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	users, err := s.users.FindByIDs(ctx, ids...)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve interview participants", "error", err)
		users = nil
	}

	summary := func(id string) model.UserSummary {
		if u, ok := users[id]; ok {
			return u.Summary()
		}
		return model.UserSummary{ID: id}
	}

	details := make([]*model.InterviewDetails, 0, len(interviews))
	for _, iv := range interviews {
		details = append(details, &model.InterviewDetails{
			Interview:   iv,
			Candidate:   summary(iv.CandidateID),
			Interviewer: summary(iv.InterviewerID),
		})
	}
	return details
}

// withSlotLock runs fn under the slot's Redis lock so a competing booker
// fails fast. When the lock store is unreachable fn runs without it; the
// transaction and the slot_hold index still decide the winner.
func (s *interviewService) withSlotLock(ctx context.Context, slotID string, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, lock.SlotKey(slotID), fn)
	if errors.Is(err, lock.ErrLockUnavailable) {
		s.cfg.Log.Warn("Slot lock unavailable, continuing without it", "slot_id", slotID, "error", err)
		return fn(ctx)
	}
	return err
}

func (s *interviewService) notificationTimeout() time.Duration {
	if s.cfg.NotificationTimeout > 0 {
		return s.cfg.NotificationTimeout
	}
	return defaultNotificationTimeout
}

// dispatch runs a notification in the background with its own deadline.
// The request's values (request id) carry over but its cancellation does
// not. Failures are logged only.
func (s *interviewService) dispatch(ctx context.Context, kind string, interviewID string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		ctx, cancel := context.WithTimeout(detached, s.notificationTimeout())
		defer cancel()
		if err := fn(ctx); err != nil {
			s.cfg.Log.Warn("Failed to send interview notification",
				"kind", kind,
				"interview_id", interviewID,
				"error", err,
			)
		}
	})
}

func (s *interviewService) notifyBooked(ctx context.Context, details *model.InterviewDetails) {
	candidate := notifications.ContactFromSummary(details.Candidate)
	interviewer := notifications.ContactFromSummary(details.Interviewer)
	summary := notifications.SummaryOf(details.Interview)
	s.dispatch(ctx, notifications.EventBooked, details.ID, func(ctx context.Context) error {
		return s.notifier.NotifyBooked(ctx, candidate, interviewer, summary)
	})
}

func (s *interviewService) notifyCancelled(ctx context.Context, details *model.InterviewDetails, reason string) {
	candidate := notifications.ContactFromSummary(details.Candidate)
	summary := notifications.SummaryOf(details.Interview)
	s.dispatch(ctx, notifications.EventCancelled, details.ID, func(ctx context.Context) error {
		return s.notifier.NotifyCancelled(ctx, candidate, summary, reason)
	})
}

func (s *interviewService) translateError(err error, id string, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, interviewerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Interview", id)
	case errors.Is(err, interviewerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid interview ID format")
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Slot", id)
	case errors.Is(err, slotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid slot ID format")
	case errors.Is(err, slotserrors.ErrSlotUnavailable):
		return apperrors.State("Slot is not available")
	case errors.Is(err, interviewerrors.ErrSlotTaken):
		return apperrors.Conflict("Slot already has an interview")
	case errors.Is(err, interviewerrors.ErrStatusChanged):
		return apperrors.Conflict("Interview was modified concurrently, retry the request")
	case errors.Is(err, interviewerrors.ErrInvalidTimeRange):
		return fieldError("end_time", "end_time must be after start_time")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Storage(message, err)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Interview validation failed", map[string]any{
			"fields": verrs,
		})
	}
	return apperrors.Validation("Interview validation failed", map[string]any{
		"error": err.Error(),
	})
}

func fieldError(field, message string) error {
	return validationError(validator.ValidationErrors{{Field: field, Message: message}})
}
