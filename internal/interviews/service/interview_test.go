package service

import (
	"context"
	"errors"
	"fmt"
	interviewerrors "interviewsync/internal/interviews/errors"
	"interviewsync/internal/interviews/validator"
	"interviewsync/internal/notifications"
	slotserrors "interviewsync/internal/slots/errors"
	usersrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/auth"
	"interviewsync/pkg/config"
	mongotx "interviewsync/pkg/db/mongo"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/kafka"
	"interviewsync/pkg/lock"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/middleware"
	"interviewsync/pkg/model"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore holds slots and interviews together so one transaction can
// roll back writes to both.
type memoryStore struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	slots      map[string]model.Slot
	interviews map[string]model.Interview
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		slots:      map[string]model.Slot{},
		interviews: map[string]model.Interview{},
	}
}

func (m *memoryStore) transaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	slots := make(map[string]model.Slot, len(m.slots))
	for k, v := range m.slots {
		slots[k] = v
	}
	interviews := make(map[string]model.Interview, len(m.interviews))
	for k, v := range m.interviews {
		interviews[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.slots = slots
		m.interviews = interviews
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryStore) slot(id string) model.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memoryStore) interview(id string) (model.Interview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.interviews[id]
	return iv, ok
}

type storeSlots struct{ *memoryStore }

func (s storeSlots) Create(_ context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == "" {
		slot.ID = primitive.NewObjectID().Hex()
	}
	slot.IsAvailable = true
	s.slots[slot.ID] = *slot
	return nil
}

func (s storeSlots) FindByID(_ context.Context, id string) (*model.Slot, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, slotserrors.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
	}
	return &slot, nil
}

func (s storeSlots) FindAll(context.Context, model.SlotFilter, int, int64) ([]*model.Slot, error) {
	return nil, errors.New("not used")
}

func (s storeSlots) Count(context.Context, model.SlotFilter) (int64, error) {
	return 0, errors.New("not used")
}

func (s storeSlots) FindConflicting(context.Context, string, time.Time, time.Time, string) (*model.Slot, error) {
	return nil, nil
}

func (s storeSlots) UpdateTimes(context.Context, string, time.Time, time.Time) error {
	return errors.New("not used")
}

func (s storeSlots) SetAvailability(context.Context, string, bool) error {
	return errors.New("not used")
}

func (s storeSlots) Claim(_ context.Context, slot *model.Slot, interviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.slots[slot.ID]
	if !ok || !current.Bookable() ||
		!current.StartTime.Equal(slot.StartTime) || !current.EndTime.Equal(slot.EndTime) {
		return slotserrors.ErrSlotUnavailable
	}
	current.IsAvailable = false
	current.InterviewID = &interviewID
	s.slots[slot.ID] = current
	return nil
}

func (s storeSlots) Release(_ context.Context, id string, interviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.slots[id]
	if !ok {
		return slotserrors.ErrNotFound
	}
	if current.InterviewID == nil || *current.InterviewID != interviewID {
		return slotserrors.ErrNotHeld
	}
	current.IsAvailable = true
	current.InterviewID = nil
	s.slots[id] = current
	return nil
}

func (s storeSlots) Delete(context.Context, string) error {
	return errors.New("not used")
}

func (s storeSlots) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return s.transaction(ctx, fn)
}

type storeInterviews struct{ *memoryStore }

func (s storeInterviews) Create(_ context.Context, iv *model.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.interviews {
		if other.SlotHold != nil && *other.SlotHold == iv.SlotID {
			return interviewerrors.ErrSlotTaken
		}
	}
	hold := iv.SlotID
	iv.SlotHold = &hold
	iv.Status = model.StatusScheduled
	iv.CreatedAt = testNow
	iv.UpdatedAt = testNow
	iv.Revision = 1
	s.interviews[iv.ID] = *iv
	return nil
}

func (s storeInterviews) FindByID(_ context.Context, id string) (*model.Interview, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, interviewerrors.ErrInvalidID
	}
	iv, ok := s.interview(id)
	if !ok {
		return nil, interviewerrors.ErrNotFound
	}
	return &iv, nil
}

func (s storeInterviews) matching(f model.InterviewFilter) []*model.Interview {
	var out []*model.Interview
	for _, iv := range s.interviews {
		if f.CandidateID != "" && iv.CandidateID != f.CandidateID {
			continue
		}
		if f.InterviewerID != "" && iv.InterviewerID != f.InterviewerID {
			continue
		}
		if f.Status != "" && iv.Status != f.Status {
			continue
		}
		v := iv
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s storeInterviews) FindAll(_ context.Context, f model.InterviewFilter, limit int, offset int64) ([]*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.matching(f)
	if int(offset) >= len(all) {
		return []*model.Interview{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s storeInterviews) Count(_ context.Context, f model.InterviewFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(f))), nil
}

func (s storeInterviews) FindSchedulingConflict(_ context.Context, candidateID, interviewerID string, start, end time.Time, excludeID string) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, iv := range s.interviews {
		if id == excludeID || iv.Status == model.StatusCancelled {
			continue
		}
		if iv.CandidateID != candidateID && iv.InterviewerID != interviewerID {
			continue
		}
		if !iv.StartTime.After(end) && !iv.EndTime.Before(start) {
			v := iv
			return &v, nil
		}
	}
	return nil, nil
}

func (s storeInterviews) conditional(id string, expected model.InterviewStatus, apply func(iv *model.Interview)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return interviewerrors.ErrNotFound
	}
	if iv.Status != expected {
		return interviewerrors.ErrStatusChanged
	}
	apply(&iv)
	iv.Revision++
	s.interviews[id] = iv
	return nil
}

func (s storeInterviews) Update(_ context.Context, id string, expected model.InterviewStatus, patch *model.InterviewUpdate) error {
	return s.conditional(id, expected, func(iv *model.Interview) {
		if patch.Title != nil {
			iv.Title = *patch.Title
		}
		if patch.Description != nil {
			iv.Description = *patch.Description
		}
		if patch.Notes != nil {
			iv.Notes = *patch.Notes
		}
		if patch.VideoLink != nil {
			iv.VideoLink = *patch.VideoLink
		}
		if patch.Status != nil {
			iv.Status = *patch.Status
		}
	})
}

func (s storeInterviews) Cancel(_ context.Context, id string, expected model.InterviewStatus) error {
	return s.conditional(id, expected, func(iv *model.Interview) {
		iv.Status = model.StatusCancelled
		iv.SlotHold = nil
	})
}

func (s storeInterviews) Rebook(_ context.Context, id string, expected model.InterviewStatus, slot *model.Slot) error {
	return s.conditional(id, expected, func(iv *model.Interview) {
		hold := slot.ID
		iv.SlotID = slot.ID
		iv.SlotHold = &hold
		iv.StartTime = slot.StartTime
		iv.EndTime = slot.EndTime
		iv.Status = model.StatusScheduled
		iv.ReminderSentAt = nil
	})
}

func (s storeInterviews) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[id]; !ok {
		return interviewerrors.ErrNotFound
	}
	delete(s.interviews, id)
	return nil
}

func (s storeInterviews) FindDueReminders(_ context.Context, from, to time.Time, limit int) ([]*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Interview
	for _, iv := range s.matching(model.InterviewFilter{Status: model.StatusScheduled}) {
		if iv.ReminderSentAt != nil || iv.StartTime.Before(from) || iv.StartTime.After(to) {
			continue
		}
		out = append(out, iv)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s storeInterviews) MarkReminded(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok || iv.Status != model.StatusScheduled || iv.ReminderSentAt != nil {
		return false, nil
	}
	iv.ReminderSentAt = &at
	s.interviews[id] = iv
	return true, nil
}

func (s storeInterviews) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return s.transaction(ctx, fn)
}

type mockLockRepository struct {
	mu       sync.Mutex
	acquired []string
}

func (m *mockLockRepository) Acquire(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquired = append(m.acquired, keys...)
	return nil
}

type mockUserRepository struct {
	users map[string]*model.User
}

func (m *mockUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, usersrepo.ErrNotFound
}

func (m *mockUserRepository) FindByIDs(_ context.Context, ids ...string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *mockUserRepository) Upsert(context.Context, *model.User) error {
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []notifications.Summary
	cancelled []string
	reminded  []string
	err       error
}

func (n *recordingNotifier) NotifyBooked(ctx context.Context, _, _ notifications.Contact, s notifications.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, s)
	return n.err
}

func (n *recordingNotifier) NotifyCancelled(_ context.Context, _ notifications.Contact, _ notifications.Summary, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, reason)
	return n.err
}

func (n *recordingNotifier) NotifyReminder(_ context.Context, c notifications.Contact, _ notifications.Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminded = append(n.reminded, c.ID)
	return n.err
}

type stubVideoLinks struct {
	err error
}

func (g stubVideoLinks) Generate(context.Context) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "https://meet.example.com/room-1", nil
}

var (
	testNow       = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	scenarioStart = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	interviewerA  = auth.Requester{ID: "65a000000000000000000001", Role: auth.RoleInterviewer}
	interviewerB  = auth.Requester{ID: "65a000000000000000000002", Role: auth.RoleInterviewer}
	candidate     = auth.Requester{ID: "65a000000000000000000003", Role: auth.RoleCandidate}
	otherCand     = auth.Requester{ID: "65a000000000000000000005", Role: auth.RoleCandidate}
	admin         = auth.Requester{ID: "65a000000000000000000004", Role: auth.RoleAdmin}
)

type fixture struct {
	svc      *interviewService
	store    *memoryStore
	locks    *mockLockRepository
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:                 log,
		ReadTimeout:         5 * time.Second,
		NotificationTimeout: time.Second,
		ReminderLeadTime:    24 * time.Hour,
		ReminderBatchSize:   10,
	}
	store := newMemoryStore()
	locks := &mockLockRepository{}
	notifier := &recordingNotifier{}
	users := &mockUserRepository{users: map[string]*model.User{
		candidate.ID:    {ID: candidate.ID, Name: "Cara Candidate", Email: "cara@example.com", Role: model.RoleCandidate},
		interviewerA.ID: {ID: interviewerA.ID, Name: "Ian Interviewer", Email: "ian@example.com", Role: model.RoleInterviewer},
	}}

	svc := &interviewService{
		repo:       storeInterviews{store},
		slots:      storeSlots{store},
		locks:      locks,
		users:      users,
		notifier:   notifier,
		locker:     lock.NewNoopLocker(),
		videoLinks: stubVideoLinks{},
		validator:  validator.NewInterviewValidator(log).WithClock(func() time.Time { return testNow }),
		policy:     auth.DefaultPolicy(),
		cfg:        cfg,
		now:        func() time.Time { return testNow },
		async:      func(fn func()) { fn() },
	}
	return &fixture{svc: svc, store: store, locks: locks, notifier: notifier}
}

func (f *fixture) addSlot(t *testing.T, interviewerID string, start time.Time, minutes int) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		InterviewerID: interviewerID,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute),
	}
	require.NoError(t, storeSlots{f.store}.Create(context.Background(), slot))
	return slot
}

func bookingFor(slot *model.Slot) *model.BookingRequest {
	return &model.BookingRequest{
		SlotID:        slot.ID,
		InterviewerID: slot.InterviewerID,
		Title:         "Backend interview",
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
	}
}

func (f *fixture) book(t *testing.T, r auth.Requester, slot *model.Slot) *model.InterviewDetails {
	t.Helper()
	details, err := f.svc.Book(context.Background(), r, bookingFor(slot))
	require.NoError(t, err)
	return details
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestBook_ScenarioA(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	details := f.book(t, candidate, slot)

	assert.Equal(t, model.StatusScheduled, details.Status)
	assert.Equal(t, candidate.ID, details.CandidateID)
	assert.Equal(t, interviewerA.ID, details.InterviewerID)
	assert.Equal(t, "Cara Candidate", details.Candidate.Name)
	assert.Equal(t, "ian@example.com", details.Interviewer.Email)
	assert.Equal(t, "https://meet.example.com/room-1", details.VideoLink)

	stored := f.store.slot(slot.ID)
	assert.False(t, stored.IsAvailable)
	require.NotNil(t, stored.InterviewID)
	assert.Equal(t, details.ID, *stored.InterviewID)

	assert.Len(t, f.notifier.booked, 1)
	assert.Contains(t, f.locks.acquired, model.CandidateLockKey(candidate.ID))
	assert.Contains(t, f.locks.acquired, model.InterviewerLockKey(interviewerA.ID))
}

func TestBook_ScenarioB_CandidateConflict(t *testing.T) {
	f := newFixture(t)
	first := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	second := f.addSlot(t, interviewerB.ID, scenarioStart.Add(30*time.Minute), 45)
	f.book(t, candidate, first)

	_, err := f.svc.Book(context.Background(), candidate, bookingFor(second))
	requireCode(t, err, apperrors.CodeConflict)

	stored := f.store.slot(second.ID)
	assert.True(t, stored.IsAvailable)
	assert.Nil(t, stored.InterviewID)
}

func TestBook_BackToBackCountsAsConflict(t *testing.T) {
	f := newFixture(t)
	first := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	next := f.addSlot(t, interviewerB.ID, scenarioStart.Add(45*time.Minute), 45)
	f.book(t, candidate, first)

	_, err := f.svc.Book(context.Background(), candidate, bookingFor(next))
	requireCode(t, err, apperrors.CodeConflict)
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	tests := []struct {
		name   string
		mutate func(r *model.BookingRequest)
		code   string
	}{
		{"wrong interviewer", func(r *model.BookingRequest) { r.InterviewerID = interviewerB.ID }, apperrors.CodeValidation},
		{"start mismatch", func(r *model.BookingRequest) {
			r.StartTime = r.StartTime.Add(time.Minute)
		}, apperrors.CodeValidation},
		{"end mismatch", func(r *model.BookingRequest) { r.EndTime = r.EndTime.Add(time.Minute) }, apperrors.CodeValidation},
		{"short title", func(r *model.BookingRequest) { r.Title = "Hi" }, apperrors.CodeValidation},
		{"unknown slot", func(r *model.BookingRequest) { r.SlotID = primitive.NewObjectID().Hex() }, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingFor(slot)
			tt.mutate(req)
			_, err := f.svc.Book(context.Background(), candidate, req)
			requireCode(t, err, tt.code)
		})
	}

	assert.True(t, f.store.slot(slot.ID).IsAvailable)
}

func TestBook_EquivalentTimeRepresentations(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	offset := time.FixedZone("UTC+2", 2*60*60)
	req := bookingFor(slot)
	req.StartTime = slot.StartTime.In(offset)
	req.EndTime = slot.EndTime.In(offset).Add(300 * time.Microsecond)

	_, err := f.svc.Book(context.Background(), candidate, req)
	require.NoError(t, err)
}

func TestBook_Policy(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	_, err := f.svc.Book(context.Background(), interviewerA, bookingFor(slot))
	requireCode(t, err, apperrors.CodeForbidden)

	req := bookingFor(slot)
	req.CandidateID = otherCand.ID
	details, err := f.svc.Book(context.Background(), candidate, req)
	require.NoError(t, err)
	assert.Equal(t, candidate.ID, details.CandidateID, "candidates always book for themselves")
}

func TestBook_AdminRequiresCandidate(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	_, err := f.svc.Book(context.Background(), admin, bookingFor(slot))
	requireCode(t, err, apperrors.CodeValidation)

	req := bookingFor(slot)
	req.CandidateID = otherCand.ID
	details, err := f.svc.Book(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, otherCand.ID, details.CandidateID)
	assert.Equal(t, model.UserSummary{ID: otherCand.ID}, details.Candidate)
}

func TestBook_UnavailableSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	f.book(t, candidate, slot)

	_, err := f.svc.Book(context.Background(), otherCand, bookingFor(slot))
	requireCode(t, err, apperrors.CodeInvalidState)
}

func TestBook_VideoLinkFailureStillBooks(t *testing.T) {
	f := newFixture(t)
	f.svc.videoLinks = stubVideoLinks{err: errors.New("provider down")}
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	details := f.book(t, candidate, slot)
	assert.Empty(t, details.VideoLink)
}

func TestBook_NotificationFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	details := f.book(t, candidate, slot)
	assert.Equal(t, model.StatusScheduled, details.Status)
}

func TestBook_ConcurrentRequestsClaimOnce(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := auth.Requester{ID: fmt.Sprintf("65c0000000000000000000%02d", i), Role: auth.RoleCandidate}
			_, err := f.svc.Book(context.Background(), r, bookingFor(slot))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			apperrors.IsCode(err, apperrors.CodeInvalidState) || apperrors.IsCode(err, apperrors.CodeConflict),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	count, err := storeInterviews{f.store}.Count(context.Background(), model.InterviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCancel_ScenarioD(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	booked := f.book(t, candidate, slot)

	cancelled, err := f.svc.Cancel(context.Background(), candidate, booked.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	stored := f.store.slot(slot.ID)
	assert.True(t, stored.IsAvailable)
	assert.Nil(t, stored.InterviewID)
	assert.Equal(t, []string{notifications.DefaultCancelReason}, f.notifier.cancelled)

	again, err := f.svc.Cancel(context.Background(), candidate, booked.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
	assert.Len(t, f.notifier.cancelled, 1, "second cancel must not notify")

	rebooked := f.book(t, otherCand, slot)
	assert.NotEqual(t, booked.ID, rebooked.ID)
}

func TestCancel_Rules(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	booked := f.book(t, candidate, slot)

	_, err := f.svc.Cancel(context.Background(), otherCand, booked.ID, "")
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Cancel(context.Background(), candidate, "bad-id", "")
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.svc.Cancel(context.Background(), candidate, primitive.NewObjectID().Hex(), "")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Cancel(context.Background(), candidate, booked.ID, strings.Repeat("r", 501))
	requireCode(t, err, apperrors.CodeValidation)

	completed := model.StatusCompleted
	_, err = f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{Status: &completed})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), interviewerA, booked.ID, "")
	requireCode(t, err, apperrors.CodeInvalidState)
}

func TestCancel_ReasonIsForwarded(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	booked := f.book(t, candidate, slot)

	_, err := f.svc.Cancel(context.Background(), interviewerA, booked.ID, "  Interviewer is ill  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Interviewer is ill"}, f.notifier.cancelled)
}

func TestUpdate(t *testing.T) {
	t.Run("fields and status", func(t *testing.T) {
		f := newFixture(t)
		booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

		title := "Final round"
		status := model.StatusRescheduled
		updated, err := f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{
			Title:  &title,
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, "Final round", updated.Title)
		assert.Equal(t, model.StatusRescheduled, updated.Status)
	})

	t.Run("invalid transition", func(t *testing.T) {
		f := newFixture(t)
		booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

		rescheduled := model.StatusRescheduled
		_, err := f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{Status: &rescheduled})
		require.NoError(t, err)

		completed := model.StatusCompleted
		_, err = f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{Status: &completed})
		requireCode(t, err, apperrors.CodeInvalidState)
	})

	t.Run("cancel through update releases slot", func(t *testing.T) {
		f := newFixture(t)
		slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
		booked := f.book(t, candidate, slot)

		notes := "No show"
		cancelled := model.StatusCancelled
		updated, err := f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{
			Notes:  &notes,
			Status: &cancelled,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, updated.Status)
		assert.Equal(t, "No show", updated.Notes)
		assert.True(t, f.store.slot(slot.ID).IsAvailable)
	})

	t.Run("empty patch", func(t *testing.T) {
		f := newFixture(t)
		booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

		_, err := f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{})
		requireCode(t, err, apperrors.CodeInvalidInput)
	})

	t.Run("candidate cannot update", func(t *testing.T) {
		f := newFixture(t)
		booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

		title := "Mine now"
		_, err := f.svc.Update(context.Background(), candidate, booked.ID, &model.InterviewUpdate{Title: &title})
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("other interviewer", func(t *testing.T) {
		f := newFixture(t)
		booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

		title := "Taken over"
		_, err := f.svc.Update(context.Background(), interviewerB, booked.ID, &model.InterviewUpdate{Title: &title})
		requireCode(t, err, apperrors.CodeForbidden)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	booked := f.book(t, candidate, slot)

	err := f.svc.Delete(context.Background(), candidate, booked.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	require.NoError(t, f.svc.Delete(context.Background(), interviewerA, booked.ID))

	_, ok := f.store.interview(booked.ID)
	assert.False(t, ok)
	assert.True(t, f.store.slot(slot.ID).IsAvailable)
	assert.Empty(t, f.notifier.cancelled)

	err = f.svc.Delete(context.Background(), interviewerA, booked.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestDelete_CancelledKeepsRebookedSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	first := f.book(t, candidate, slot)

	_, err := f.svc.Cancel(context.Background(), candidate, first.ID, "")
	require.NoError(t, err)
	second := f.book(t, otherCand, slot)

	require.NoError(t, f.svc.Delete(context.Background(), admin, first.ID))

	stored := f.store.slot(slot.ID)
	require.NotNil(t, stored.InterviewID)
	assert.Equal(t, second.ID, *stored.InterviewID)
}

func TestRebook(t *testing.T) {
	f := newFixture(t)
	oldSlot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	newSlot := f.addSlot(t, interviewerA.ID, scenarioStart.Add(2*time.Hour), 45)
	booked := f.book(t, candidate, oldSlot)

	rescheduled := model.StatusRescheduled
	_, err := f.svc.Update(context.Background(), interviewerA, booked.ID, &model.InterviewUpdate{Status: &rescheduled})
	require.NoError(t, err)

	rebooked, err := f.svc.Rebook(context.Background(), candidate, booked.ID, newSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, rebooked.Status)
	assert.Equal(t, newSlot.ID, rebooked.SlotID)
	assert.True(t, rebooked.StartTime.Equal(newSlot.StartTime))

	assert.True(t, f.store.slot(oldSlot.ID).IsAvailable)
	stored := f.store.slot(newSlot.ID)
	assert.False(t, stored.IsAvailable)
	require.NotNil(t, stored.InterviewID)
	assert.Equal(t, booked.ID, *stored.InterviewID)
	assert.Len(t, f.notifier.booked, 2)
}

func TestRebook_Rules(t *testing.T) {
	f := newFixture(t)
	oldSlot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	otherInterviewer := f.addSlot(t, interviewerB.ID, scenarioStart.Add(3*time.Hour), 45)
	booked := f.book(t, candidate, oldSlot)

	_, err := f.svc.Rebook(context.Background(), candidate, booked.ID, oldSlot.ID)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Rebook(context.Background(), candidate, booked.ID, otherInterviewer.ID)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Rebook(context.Background(), interviewerA, booked.ID, otherInterviewer.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Cancel(context.Background(), candidate, booked.ID, "")
	require.NoError(t, err)
	spare := f.addSlot(t, interviewerA.ID, scenarioStart.Add(4*time.Hour), 45)
	_, err = f.svc.Rebook(context.Background(), candidate, booked.ID, spare.ID)
	requireCode(t, err, apperrors.CodeInvalidState)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	booked := f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))

	got, err := f.svc.GetByID(context.Background(), interviewerA, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, booked.ID, got.ID)

	_, err = f.svc.GetByID(context.Background(), otherCand, booked.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestList_Scoping(t *testing.T) {
	f := newFixture(t)
	f.book(t, candidate, f.addSlot(t, interviewerA.ID, scenarioStart, 45))
	f.book(t, otherCand, f.addSlot(t, interviewerB.ID, scenarioStart, 45))

	mine, total, err := f.svc.List(context.Background(), candidate, model.InterviewFilter{CandidateID: otherCand.ID}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, candidate.ID, mine[0].CandidateID)

	theirs, total, err := f.svc.List(context.Background(), interviewerB, model.InterviewFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, interviewerB.ID, theirs[0].InterviewerID)

	all, total, err := f.svc.List(context.Background(), admin, model.InterviewFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	_, _, err = f.svc.List(context.Background(), admin, model.InterviewFilter{Status: "DONE"}, 10, 0)
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestSendDueReminders(t *testing.T) {
	f := newFixture(t)
	soon := f.addSlot(t, interviewerA.ID, testNow.Add(2*time.Hour), 45)
	later := f.addSlot(t, interviewerA.ID, testNow.Add(72*time.Hour), 45)

	f.book(t, candidate, soon)
	f.book(t, candidate, later)

	sent, err := f.svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{candidate.ID}, f.notifier.reminded)

	sent, err = f.svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, f.notifier.reminded, 1)
}

type capturingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (p *capturingPublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (f *fixture) publishToKafka() *capturingPublisher {
	pub := &capturingPublisher{}
	f.svc.notifier = notifications.NewKafkaNotifier(pub, "interviews", f.svc.cfg.Log)
	return pub
}

func TestBook_EventCarriesRequestID(t *testing.T) {
	f := newFixture(t)
	pub := f.publishToKafka()
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	_, err := f.svc.Book(ctx, candidate, bookingFor(slot))
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "req-123", pub.messages[0].GetCorrelationID())
}

func TestBook_NotificationOutlivesRequest(t *testing.T) {
	f := newFixture(t)
	var deferred func()
	f.svc.async = func(fn func()) { deferred = fn }
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.svc.Book(ctx, candidate, bookingFor(slot))
	require.NoError(t, err)
	cancel()

	require.NotNil(t, deferred)
	deferred()
	assert.Len(t, f.notifier.booked, 1)
}

func TestRebook_BackToOriginalSlotGetsFreshEventID(t *testing.T) {
	f := newFixture(t)
	pub := f.publishToKafka()
	slotA := f.addSlot(t, interviewerA.ID, scenarioStart, 45)
	slotB := f.addSlot(t, interviewerA.ID, scenarioStart.Add(2*time.Hour), 45)

	booked, err := f.svc.Book(context.Background(), candidate, bookingFor(slotA))
	require.NoError(t, err)
	_, err = f.svc.Rebook(context.Background(), candidate, booked.ID, slotB.ID)
	require.NoError(t, err)
	back, err := f.svc.Rebook(context.Background(), candidate, booked.ID, slotA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), back.Revision)

	require.Len(t, pub.messages, 3)
	ids := map[string]bool{}
	for _, msg := range pub.messages {
		ids[msg.GetEventID()] = true
	}
	assert.Len(t, ids, 3, "every booking transition publishes a distinct event id")
}

type stubLocker struct {
	err error
}

func (l stubLocker) WithLock(_ context.Context, _ string, _ func(ctx context.Context) error) error {
	return l.err
}

func TestBook_SlotLockStoreDown(t *testing.T) {
	f := newFixture(t)
	f.svc.locker = stubLocker{err: fmt.Errorf("%w: dial tcp: connection refused", lock.ErrLockUnavailable)}
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	booked, err := f.svc.Book(context.Background(), candidate, bookingFor(slot))
	require.NoError(t, err)

	stored := f.store.slot(slot.ID)
	require.NotNil(t, stored.InterviewID)
	assert.Equal(t, booked.ID, *stored.InterviewID)
}

func TestBook_SlotLockHeldElsewhere(t *testing.T) {
	f := newFixture(t)
	f.svc.locker = stubLocker{err: lock.ErrLockNotAcquired}
	slot := f.addSlot(t, interviewerA.ID, scenarioStart, 45)

	_, err := f.svc.Book(context.Background(), candidate, bookingFor(slot))
	requireCode(t, err, apperrors.CodeConflict)
	assert.True(t, f.store.slot(slot.ID).IsAvailable)
}
