package model

import "time"

// ScheduleLock is a per participant document touched inside booking
// transactions so that concurrent writers for the same person conflict.
type ScheduleLock struct {
	ID        string    `bson:"_id" json:"id"`
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func CandidateLockKey(id string) string {
	return "candidate:" + id
}

func InterviewerLockKey(id string) string {
	return "interviewer:" + id
}
