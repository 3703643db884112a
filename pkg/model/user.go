package model

import "time"

const (
	RoleCandidate   = "candidate"
	RoleInterviewer = "interviewer"
	RoleAdmin       = "admin"
)

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Role      string    `json:"role" bson:"role" validate:"required,oneof=candidate interviewer admin"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// UserSummary is the participant view embedded in interview responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
