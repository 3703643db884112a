package model

import (
	"time"
)

type Slot struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	InterviewerID string    `json:"interviewer_id" bson:"interviewer_id" validate:"required,mongodb"`
	StartTime     time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	IsAvailable   bool      `json:"is_available" bson:"is_available"`
	InterviewID   *string   `json:"interview_id" bson:"interview_id"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Held reports whether an interview currently occupies the slot.
func (s *Slot) Held() bool {
	return s.InterviewID != nil
}

// Bookable reports whether the slot can be claimed by a new interview.
func (s *Slot) Bookable() bool {
	return s.IsAvailable && s.InterviewID == nil
}

type SlotUpdate struct {
	StartTime   *time.Time `json:"start_time,omitempty" validate:"omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty" validate:"omitempty"`
	IsAvailable *bool      `json:"is_available,omitempty"`
}

func (u *SlotUpdate) Empty() bool {
	return u.StartTime == nil && u.EndTime == nil && u.IsAvailable == nil
}

type SlotFilter struct {
	InterviewerID string
	StartDate     *time.Time
	EndDate       *time.Time
	Available     *bool
}
