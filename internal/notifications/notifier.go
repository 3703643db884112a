package notifications

import (
	"context"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/model"
	"time"
)

const DefaultCancelReason = "Interview cancelled by user"

// Contact is a notification recipient.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func ContactFromSummary(u model.UserSummary) Contact {
	return Contact{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Summary is the part of an interview that notifications render.
type Summary struct {
	InterviewID string    `json:"interview_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	VideoLink   string    `json:"video_link,omitempty"`
	Revision    int64     `json:"revision"`
}

func SummaryOf(iv *model.Interview) Summary {
	return Summary{
		InterviewID: iv.ID,
		Title:       iv.Title,
		StartTime:   iv.StartTime,
		EndTime:     iv.EndTime,
		VideoLink:   iv.VideoLink,
		Revision:    iv.Revision,
	}
}

func (s Summary) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime).Round(time.Minute).Minutes())
}

// Notifier delivers interview notifications. Callers treat every error as
// non-fatal.
type Notifier interface {
	NotifyBooked(ctx context.Context, candidate, interviewer Contact, summary Summary) error
	NotifyCancelled(ctx context.Context, candidate Contact, summary Summary, reason string) error
	NotifyReminder(ctx context.Context, candidate Contact, summary Summary) error
}

type NoopNotifier struct {
	log *logger.Logger
}

func NewNoopNotifier(log *logger.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) NotifyBooked(_ context.Context, candidate, interviewer Contact, summary Summary) error {
	n.log.Debug("Skipping booked notification",
		"interview_id", summary.InterviewID,
		"candidate_id", candidate.ID,
		"interviewer_id", interviewer.ID,
	)
	return nil
}

func (n *NoopNotifier) NotifyCancelled(_ context.Context, candidate Contact, summary Summary, reason string) error {
	n.log.Debug("Skipping cancelled notification",
		"interview_id", summary.InterviewID,
		"candidate_id", candidate.ID,
		"reason", reason,
	)
	return nil
}

func (n *NoopNotifier) NotifyReminder(_ context.Context, candidate Contact, summary Summary) error {
	n.log.Debug("Skipping reminder notification",
		"interview_id", summary.InterviewID,
		"candidate_id", candidate.ID,
	)
	return nil
}
