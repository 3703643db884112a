package validator

import (
	"errors"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
	"strings"
	"testing"
	"time"
)

func newTestValidator(now time.Time) *InterviewValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewInterviewValidator(log).WithClock(func() time.Time { return now })
}

func hasField(err error, field string) bool {
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, e := range verrs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateBooking(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	v := newTestValidator(now)
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	valid := func() model.BookingRequest {
		return model.BookingRequest{
			SlotID:        "65b000000000000000000001",
			InterviewerID: "65a000000000000000000001",
			Title:         "Backend interview",
			StartTime:     start,
			EndTime:       start.Add(45 * time.Minute),
		}
	}

	tests := []struct {
		name      string
		mutate    func(r *model.BookingRequest)
		wantField string
	}{
		{"valid", func(*model.BookingRequest) {}, ""},
		{"short title", func(r *model.BookingRequest) { r.Title = "Hi" }, "title"},
		{"long title", func(r *model.BookingRequest) { r.Title = strings.Repeat("a", 101) }, "title"},
		{"long description", func(r *model.BookingRequest) { r.Description = strings.Repeat("a", 501) }, "description"},
		{"missing slot", func(r *model.BookingRequest) { r.SlotID = "" }, "slot_id"},
		{"malformed interviewer", func(r *model.BookingRequest) { r.InterviewerID = "abc" }, "interviewer_id"},
		{"malformed candidate", func(r *model.BookingRequest) { r.CandidateID = "abc" }, "candidate_id"},
		{"end before start", func(r *model.BookingRequest) { r.EndTime = start.Add(-time.Minute) }, "end_time"},
		{"past start", func(r *model.BookingRequest) {
			r.StartTime = now.Add(-time.Hour)
			r.EndTime = now.Add(time.Hour)
		}, "start_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := v.ValidateBooking(&req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !hasField(err, tt.wantField) {
				t.Errorf("expected error on %q, got %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator(time.Now())

	badLink := "not a url"
	if err := v.Validate(&model.InterviewUpdate{VideoLink: &badLink}); !hasField(err, "video_link") {
		t.Errorf("expected video_link error, got %v", err)
	}

	badStatus := model.InterviewStatus("DONE")
	if err := v.Validate(&model.InterviewUpdate{Status: &badStatus}); !hasField(err, "status") {
		t.Errorf("expected status error, got %v", err)
	}

	notes := strings.Repeat("n", 1001)
	if err := v.Validate(&model.InterviewUpdate{Notes: &notes}); !hasField(err, "notes") {
		t.Errorf("expected notes error, got %v", err)
	}

	title := "Final round"
	if err := v.Validate(&model.InterviewUpdate{Title: &title}); err != nil {
		t.Errorf("expected valid update, got %v", err)
	}
}
