//go:build integration

package service

import (
	"context"
	"interviewsync/internal/interviews/repository"
	"interviewsync/internal/interviews/validator"
	slotsrepo "interviewsync/internal/slots/repository"
	slotservice "interviewsync/internal/slots/service"
	slotvalidator "interviewsync/internal/slots/validator"
	"interviewsync/internal/testutil"
	usersrepo "interviewsync/internal/users/repository"
	"interviewsync/pkg/auth"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/lock"
	"interviewsync/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type mongoFixture struct {
	mongo    *testutil.MongoHelper
	svc      *interviewService
	slotSvc  slotservice.SlotService
	slotRepo slotsrepo.SlotRepository
	notifier *recordingNotifier
}

func newMongoFixture(t *testing.T) *mongoFixture {
	t.Helper()
	h := testutil.NewMongoHelper(t)
	cfg := h.Config()
	clock := func() time.Time { return testNow }

	slotRepo := slotsrepo.NewMongoSlotRepository(cfg)
	locks := slotsrepo.NewScheduleLockRepository(cfg)
	notifier := &recordingNotifier{}

	svc := &interviewService{
		repo:       repository.NewMongoInterviewRepository(cfg),
		slots:      slotRepo,
		locks:      locks,
		users:      usersrepo.NewMongoUserRepository(cfg),
		notifier:   notifier,
		locker:     lock.NewNoopLocker(),
		videoLinks: stubVideoLinks{},
		validator:  validator.NewInterviewValidator(cfg.Log).WithClock(clock),
		policy:     auth.DefaultPolicy(),
		cfg:        cfg,
		now:        clock,
		async:      func(fn func()) { fn() },
	}
	slotSvc := slotservice.NewSlotService(slotRepo, locks, slotvalidator.NewSlotValidator(cfg.Log).WithClock(clock), auth.DefaultPolicy(), cfg)

	return &mongoFixture{mongo: h, svc: svc, slotSvc: slotSvc, slotRepo: slotRepo, notifier: notifier}
}

func (f *mongoFixture) createSlot(t *testing.T, interviewer auth.Requester, start time.Time, minutes int) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		InterviewerID: interviewer.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute),
	}
	require.NoError(t, f.slotSvc.Create(context.Background(), interviewer, slot))
	return slot
}

func (f *mongoFixture) storedSlot(t *testing.T, id string) *model.Slot {
	t.Helper()
	slot, err := f.slotRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return slot
}

func TestMongo_BookAndCancel(t *testing.T) {
	f := newMongoFixture(t)
	ctx := context.Background()

	// A: booking takes the slot.
	first := f.createSlot(t, interviewerA, scenarioStart, 45)
	booked, err := f.svc.Book(ctx, candidate, bookingFor(first))
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, booked.Status)
	assert.Equal(t, int64(1), booked.Revision)

	held := f.storedSlot(t, first.ID)
	assert.False(t, held.IsAvailable)
	require.NotNil(t, held.InterviewID)
	assert.Equal(t, booked.ID, *held.InterviewID)

	// B: the candidate is busy at 9:30 on another interviewer's calendar.
	second := f.createSlot(t, interviewerB, scenarioStart.Add(30*time.Minute), 45)
	_, err = f.svc.Book(ctx, candidate, bookingFor(second))
	requireCode(t, err, apperrors.CodeConflict)
	assert.True(t, f.storedSlot(t, second.ID).IsAvailable)

	// C: the interviewer cannot open an overlapping slot.
	overlap := &model.Slot{
		InterviewerID: interviewerA.ID,
		StartTime:     scenarioStart.Add(30 * time.Minute),
		EndTime:       scenarioStart.Add(75 * time.Minute),
	}
	err = f.slotSvc.Create(ctx, interviewerA, overlap)
	requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, int64(1), f.mongo.CountDocuments(t, slotsrepo.CollectionName, bson.M{"interviewer_id": interviewerA.ID}))

	// D: cancelling frees the slot, a second cancel changes nothing.
	cancelled, err := f.svc.Cancel(ctx, candidate, booked.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	freed := f.storedSlot(t, first.ID)
	assert.True(t, freed.IsAvailable)
	assert.Nil(t, freed.InterviewID)

	again, err := f.svc.Cancel(ctx, candidate, booked.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
	assert.Equal(t, cancelled.Revision, again.Revision)
	assert.Len(t, f.notifier.cancelled, 1)

	// With the first interview gone the 9:30 slot is bookable.
	_, err = f.svc.Book(ctx, candidate, bookingFor(second))
	require.NoError(t, err)
}

func TestMongo_BookedSlotCannotBeDeleted(t *testing.T) {
	f := newMongoFixture(t)
	ctx := context.Background()
	slot := f.createSlot(t, interviewerA, scenarioStart, 45)

	_, err := f.svc.Book(ctx, candidate, bookingFor(slot))
	require.NoError(t, err)

	err = f.slotSvc.Delete(ctx, interviewerA, slot.ID)
	requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, int64(1), f.mongo.CountDocuments(t, slotsrepo.CollectionName, bson.M{"_id": slot.ID}))
}

func TestMongo_ConcurrentBookingsOfOneSlot(t *testing.T) {
	f := newMongoFixture(t)
	slot := f.createSlot(t, interviewerA, scenarioStart, 45)
	bookers := []auth.Requester{candidate, otherCand}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, len(bookers))
	for i, booker := range bookers {
		wg.Add(1)
		go func(i int, booker auth.Requester) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Book(context.Background(), booker, bookingFor(slot))
		}(i, booker)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			apperrors.IsCode(err, apperrors.CodeConflict) || apperrors.IsCode(err, apperrors.CodeInvalidState),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.mongo.CountDocuments(t, repository.CollectionName, bson.M{"slot_id": slot.ID}))
	assert.False(t, f.storedSlot(t, slot.ID).IsAvailable)
}
