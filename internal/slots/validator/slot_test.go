package validator

import (
	"errors"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
	"testing"
	"time"
)

func newTestValidator(now time.Time) *SlotValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewSlotValidator(log).WithClock(func() time.Time { return now })
}

func TestValidate(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	v := newTestValidator(now)
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		slot       model.Slot
		wantFields []string
	}{
		{
			name: "valid slot",
			slot: model.Slot{
				InterviewerID: "65a000000000000000000001",
				StartTime:     start,
				EndTime:       start.Add(45 * time.Minute),
			},
		},
		{
			name: "missing interviewer",
			slot: model.Slot{
				StartTime: start,
				EndTime:   start.Add(45 * time.Minute),
			},
			wantFields: []string{"interviewer_id"},
		},
		{
			name: "malformed interviewer id",
			slot: model.Slot{
				InterviewerID: "not-an-id",
				StartTime:     start,
				EndTime:       start.Add(45 * time.Minute),
			},
			wantFields: []string{"interviewer_id"},
		},
		{
			name: "end before start",
			slot: model.Slot{
				InterviewerID: "65a000000000000000000001",
				StartTime:     start,
				EndTime:       start.Add(-time.Minute),
			},
			wantFields: []string{"end_time"},
		},
		{
			name: "zero length",
			slot: model.Slot{
				InterviewerID: "65a000000000000000000001",
				StartTime:     start,
				EndTime:       start,
			},
			wantFields: []string{"end_time"},
		},
		{
			name: "start in the past",
			slot: model.Slot{
				InterviewerID: "65a000000000000000000001",
				StartTime:     now.Add(-time.Hour),
				EndTime:       now.Add(time.Hour),
			},
			wantFields: []string{"start_time"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.slot)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			for _, field := range tt.wantFields {
				found := false
				for _, e := range verrs {
					if e.Field == field {
						found = true
					}
				}
				if !found {
					t.Errorf("expected error on field %q, got %v", field, verrs)
				}
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if err := v.ValidateUpdate(future, future.Add(time.Hour), true); err != nil {
		t.Errorf("expected valid update, got %v", err)
	}
	if err := v.ValidateUpdate(future, future, false); err == nil {
		t.Error("expected error for empty range")
	}
	if err := v.ValidateUpdate(past, future, true); err == nil {
		t.Error("expected error when moving start into the past")
	}
	if err := v.ValidateUpdate(past, future, false); err != nil {
		t.Errorf("unchanged past start should be accepted, got %v", err)
	}
}
