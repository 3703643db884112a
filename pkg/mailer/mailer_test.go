package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"interviewsync/pkg/logger"
)

func TestNew_ProviderSelection(t *testing.T) {
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Service: "test"})

	if _, ok := New(Config{Provider: ProviderNoop}, log).(*noopMailer); !ok {
		t.Error("noop provider should build a noop mailer")
	}
	if _, ok := New(Config{Provider: "smtp"}, log).(*noopMailer); !ok {
		t.Error("unknown provider should fall back to noop")
	}
	if _, ok := New(Config{Provider: ProviderSES, SES: SESConfig{Region: "eu-west-1"}}, log).(*sesMailer); !ok {
		t.Error("ses provider should build an SES mailer")
	}
}

func TestNoopMailer_LogsRecipient(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Output: &buf, Service: "test"})

	err := New(Config{Provider: ProviderNoop}, log).Send(context.Background(), Message{
		To:      "candidate@example.com",
		Subject: "Interview Scheduled: Backend",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "candidate@example.com") {
		t.Errorf("log output missing recipient: %s", buf.String())
	}
}
