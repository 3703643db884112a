package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"interviewsync/pkg/kafka"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/middleware"
)

const (
	EventBooked    = "interview.booked"
	EventCancelled = "interview.cancelled"
	EventReminder  = "interview.reminder"

	eventSchemaVersion = "1"
)

// Event is the payload published on the notification topic.
type Event struct {
	Type        string   `json:"type"`
	Candidate   Contact  `json:"candidate"`
	Interviewer *Contact `json:"interviewer,omitempty"`
	Interview   Summary  `json:"interview"`
	Reason      string   `json:"reason,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes notification events keyed by interview id, so all
// events of one interview land on the same partition in order.
type KafkaNotifier struct {
	publisher Publisher
	source    string
	log       *logger.Logger
}

func NewKafkaNotifier(publisher Publisher, source string, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		source:    source,
		log:       log,
	}
}

func (n *KafkaNotifier) NotifyBooked(ctx context.Context, candidate, interviewer Contact, summary Summary) error {
	return n.publish(ctx, Event{
		Type:        EventBooked,
		Candidate:   candidate,
		Interviewer: &interviewer,
		Interview:   summary,
	})
}

func (n *KafkaNotifier) NotifyCancelled(ctx context.Context, candidate Contact, summary Summary, reason string) error {
	return n.publish(ctx, Event{
		Type:      EventCancelled,
		Candidate: candidate,
		Interview: summary,
		Reason:    reason,
	})
}

func (n *KafkaNotifier) NotifyReminder(ctx context.Context, candidate Contact, summary Summary) error {
	return n.publish(ctx, Event{
		Type:      EventReminder,
		Candidate: candidate,
		Interview: summary,
	})
}

func (n *KafkaNotifier) publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Interview.InterviewID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(n.source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithDedupID(dedupParts(event)...).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	n.log.Debug("Notification event published",
		"event_type", event.Type,
		"event_id", msg.GetEventID(),
		"interview_id", event.Interview.InterviewID,
	)
	return nil
}

// dedupParts identify one notification of one interview state. A retried
// publish repeats them; a later transition back to the same time does not,
// because the revision has moved on.
func dedupParts(event Event) []string {
	return []string{
		event.Type,
		event.Interview.InterviewID,
		strconv.FormatInt(event.Interview.Revision, 10),
		event.Interview.StartTime.UTC().Format(time.RFC3339),
	}
}

type eventHandler struct {
	target Notifier
	dedup  Deduplicator
	log    *logger.Logger
}

// NewEventHandler turns notification events consumed from Kafka into calls
// on target. Undecodable or unknown events fail permanently.
func NewEventHandler(target Notifier, log *logger.Logger, opts ...HandlerOption) kafka.MessageHandler {
	h := &eventHandler{target: target, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h.handle
}

func (h *eventHandler) handle(ctx context.Context, msg kafka.Message) error {
	var event Event
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("invalid notification event", err)
	}
	if event.Type == "" {
		event.Type = msg.GetEventType()
	}

	eventID := msg.GetEventID()
	if h.dedup != nil && eventID != "" {
		delivered, err := h.dedup.Delivered(ctx, eventID)
		if err != nil {
			h.log.Warn("Deduplication lookup failed, delivering anyway", "event_id", eventID, "error", err)
		} else if delivered {
			h.log.Info("Skipping already delivered event", "event_id", eventID, "event_type", event.Type)
			return nil
		}
	}

	var err error
	switch event.Type {
	case EventBooked:
		if event.Interviewer == nil {
			return kafka.NewPermanentError("booked event without interviewer", nil)
		}
		err = h.target.NotifyBooked(ctx, event.Candidate, *event.Interviewer, event.Interview)
	case EventCancelled:
		err = h.target.NotifyCancelled(ctx, event.Candidate, event.Interview, event.Reason)
	case EventReminder:
		err = h.target.NotifyReminder(ctx, event.Candidate, event.Interview)
	default:
		return kafka.NewPermanentError(fmt.Sprintf("unknown notification event %q", event.Type), nil)
	}
	if err != nil {
		h.log.Warn("Notification delivery failed",
			"event_type", event.Type,
			"event_id", eventID,
			"interview_id", event.Interview.InterviewID,
			"error", err,
		)
		return err
	}

	if h.dedup != nil && eventID != "" {
		if err := h.dedup.MarkDelivered(ctx, eventID); err != nil {
			h.log.Warn("Failed to record delivered event", "event_id", eventID, "error", err)
		}
	}
	return nil
}
