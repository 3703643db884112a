package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/mailer"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	templateScheduled   = "scheduled"
	templateInterviewer = "interviewer_notification"
	templateCancelled   = "cancelled"
	templateReminder    = "reminder"

	timeLayout = "Mon, 02 Jan 2006 15:04 MST"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type templateData struct {
	RecipientName   string
	CounterpartName string
	Title           string
	Start           string
	DurationMinutes int
	VideoLink       string
	Reason          string
}

// Renderer produces subject, HTML and text bodies from the embedded templates.
type Renderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func NewRenderer() (*Renderer, error) {
	text, err := texttemplate.ParseFS(templatesFS, "templates/*.subject.tmpl", "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templatesFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}
	return &Renderer{text: text, html: html}, nil
}

func (r *Renderer) Render(name string, data templateData) (mailer.Message, error) {
	var subject, text, html bytes.Buffer

	if err := r.text.ExecuteTemplate(&subject, name+".subject.tmpl", data); err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render %s subject: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render %s text: %w", name, err)
	}
	if err := r.html.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render %s html: %w", name, err)
	}

	return mailer.Message{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// EmailNotifier renders the notification templates and sends them through a
// Mailer. Recipients without an e-mail address are skipped.
type EmailNotifier struct {
	mailer   mailer.Mailer
	renderer *Renderer
	location *time.Location
	log      *logger.Logger
}

func NewEmailNotifier(m mailer.Mailer, renderer *Renderer, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		mailer:   m,
		renderer: renderer,
		location: time.UTC,
		log:      log,
	}
}

func (n *EmailNotifier) data(recipient Contact, summary Summary) templateData {
	return templateData{
		RecipientName:   displayName(recipient),
		Title:           summary.Title,
		Start:           summary.StartTime.In(n.location).Format(timeLayout),
		DurationMinutes: summary.DurationMinutes(),
		VideoLink:       summary.VideoLink,
	}
}

func displayName(c Contact) string {
	if c.Name != "" {
		return c.Name
	}
	return "Participant"
}

func (n *EmailNotifier) send(ctx context.Context, template string, to Contact, data templateData) error {
	if to.Email == "" {
		n.log.Warn("Skipping notification for contact without e-mail",
			"template", template,
			"user_id", to.ID,
		)
		return nil
	}

	msg, err := n.renderer.Render(template, data)
	if err != nil {
		return err
	}
	msg.To = to.Email

	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s e-mail: %w", template, err)
	}
	return nil
}

// NotifyBooked e-mails both participants. Both sends are attempted even when
// the first one fails.
func (n *EmailNotifier) NotifyBooked(ctx context.Context, candidate, interviewer Contact, summary Summary) error {
	candidateData := n.data(candidate, summary)
	candidateData.CounterpartName = displayName(interviewer)

	interviewerData := n.data(interviewer, summary)
	interviewerData.CounterpartName = displayName(candidate)

	return errors.Join(
		n.send(ctx, templateScheduled, candidate, candidateData),
		n.send(ctx, templateInterviewer, interviewer, interviewerData),
	)
}

func (n *EmailNotifier) NotifyCancelled(ctx context.Context, candidate Contact, summary Summary, reason string) error {
	data := n.data(candidate, summary)
	data.Reason = reason
	if data.Reason == "" {
		data.Reason = DefaultCancelReason
	}
	return n.send(ctx, templateCancelled, candidate, data)
}

func (n *EmailNotifier) NotifyReminder(ctx context.Context, candidate Contact, summary Summary) error {
	return n.send(ctx, templateReminder, candidate, n.data(candidate, summary))
}
