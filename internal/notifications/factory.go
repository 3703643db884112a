package notifications

import (
	"fmt"

	"interviewsync/pkg/config"
	"interviewsync/pkg/kafka"
	kafka_config "interviewsync/pkg/kafka/config"
	kafka_middleware "interviewsync/pkg/kafka/middleware"
	"interviewsync/pkg/logger"
	"interviewsync/pkg/mailer"
)

// MailerConfig maps the service configuration onto the mailer settings.
func MailerConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: mailer.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}
}

// NewEmailNotifierFromConfig renders templates and sends through the
// configured mail provider.
func NewEmailNotifierFromConfig(cfg *config.Config, log *logger.Logger) (*EmailNotifier, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load e-mail templates: %w", err)
	}
	return NewEmailNotifier(mailer.New(MailerConfig(cfg), log), renderer, log), nil
}

// FromConfig builds the Notifier selected by NOTIFICATION_TRANSPORT. The
// returned close function releases the transport and is never nil.
func FromConfig(cfg *config.Config, source string) (Notifier, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.NotificationTransport {
	case config.TransportKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return nil, noClose, fmt.Errorf("failed to load kafka config: %w", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationTopic, cfg.NotificationDLQTopic, cfg.Log)
		if err != nil {
			return nil, noClose, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		}
		cfg.Log.Info("Notifications published to kafka", "topic", cfg.NotificationTopic)
		return NewKafkaNotifier(producer, source, cfg.Log), producer.Close, nil

	case config.TransportEmail:
		notifier, err := NewEmailNotifierFromConfig(cfg, cfg.Log)
		if err != nil {
			return nil, noClose, err
		}
		cfg.Log.Info("Notifications sent directly by e-mail", "provider", cfg.MailProvider)
		return notifier, noClose, nil

	default:
		cfg.Log.Info("Notifications disabled, logging only")
		return NewNoopNotifier(cfg.Log), noClose, nil
	}
}
