package model

import (
	"time"
)

type InterviewStatus string

const (
	StatusScheduled   InterviewStatus = "SCHEDULED"
	StatusCompleted   InterviewStatus = "COMPLETED"
	StatusCancelled   InterviewStatus = "CANCELLED"
	StatusRescheduled InterviewStatus = "RESCHEDULED"
)

var statusTransitions = map[InterviewStatus][]InterviewStatus{
	StatusScheduled:   {StatusCompleted, StatusCancelled, StatusRescheduled},
	StatusRescheduled: {StatusCancelled},
	StatusCompleted:   nil,
	StatusCancelled:   nil,
}

func (s InterviewStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s InterviewStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether a bare status update may move s to next.
// RESCHEDULED returns to SCHEDULED only through rebooking.
func (s InterviewStatus) CanTransitionTo(next InterviewStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rebookable reports whether the interview may be moved onto another slot.
func (s InterviewStatus) Rebookable() bool {
	return s == StatusScheduled || s == StatusRescheduled
}

type Interview struct {
	ID             string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title          string          `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Description    string          `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	StartTime      time.Time       `json:"start_time" bson:"start_time" validate:"required"`
	EndTime        time.Time       `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status         InterviewStatus `json:"status" bson:"status" validate:"required,oneof=SCHEDULED COMPLETED CANCELLED RESCHEDULED"`
	VideoLink      string          `json:"video_link,omitempty" bson:"video_link,omitempty" validate:"omitempty,url"`
	Notes          string          `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	CandidateID    string          `json:"candidate_id" bson:"candidate_id" validate:"required,mongodb"`
	InterviewerID  string          `json:"interviewer_id" bson:"interviewer_id" validate:"required,mongodb"`
	SlotID         string          `json:"slot_id" bson:"slot_id" validate:"required,mongodb"`
	SlotHold       *string         `json:"-" bson:"slot_hold,omitempty"`
	ReminderSentAt *time.Time      `json:"reminder_sent_at,omitempty" bson:"reminder_sent_at,omitempty"`
	// Revision grows by one with every committed write to the interview.
	Revision       int64           `json:"revision" bson:"revision"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// InterviewDetails is an interview with its participants resolved for display.
type InterviewDetails struct {
	*Interview
	Candidate   UserSummary `json:"candidate"`
	Interviewer UserSummary `json:"interviewer"`
}

// BookingRequest is the payload of a booking. CandidateID is only honoured
// for admins; other requesters book for themselves.
type BookingRequest struct {
	SlotID        string    `json:"slot_id" validate:"required,mongodb"`
	InterviewerID string    `json:"interviewer_id" validate:"required,mongodb"`
	CandidateID   string    `json:"candidate_id,omitempty" validate:"omitempty,mongodb"`
	Title         string    `json:"title" validate:"required,min=3,max=100"`
	Description   string    `json:"description,omitempty" validate:"omitempty,max=500"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
}

type InterviewUpdate struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Status      *InterviewStatus `json:"status,omitempty" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED RESCHEDULED"`
	VideoLink   *string          `json:"video_link,omitempty" validate:"omitempty,url"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (u *InterviewUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.VideoLink == nil && u.Notes == nil
}

// HasFieldChanges reports whether the patch touches anything besides status.
func (u *InterviewUpdate) HasFieldChanges() bool {
	return u.Title != nil || u.Description != nil || u.VideoLink != nil || u.Notes != nil
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type RebookRequest struct {
	SlotID string `json:"slot_id" validate:"required,mongodb"`
}

type InterviewFilter struct {
	CandidateID   string
	InterviewerID string
	Status        InterviewStatus
}
