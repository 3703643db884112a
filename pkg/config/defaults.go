package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "interviewsync"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout   = 30 * time.Second
	DefaultIdempotencyTTL   = 24 * time.Hour
	DefaultIdempotencyStore = IdempotencyStoreMemory
	DefaultMaxRequestSize   = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotLockTTL = 5 * time.Second

	DefaultJWTLeeway   = 5 * time.Second
	DefaultDevTokenTTL = 24 * time.Hour

	DefaultNotificationTransport = TransportNoop
	DefaultNotificationTopic     = "interview-notifications"
	DefaultNotificationDLQTopic  = "interview-notifications-dlq"
	DefaultNotificationGroupID   = "interviewsync-notifier"
	DefaultNotificationTimeout   = 10 * time.Second
	DefaultNotificationDedupTTL  = 7 * 24 * time.Hour

	DefaultMailProvider    = "noop"
	DefaultMailFromAddress = "noreply@interviewsync.local"
	DefaultMailFromName    = "Interview Scheduling Team"

	DefaultVideoLinkBaseURL = "https://meet.jit.si"

	DefaultReminderInterval = 1 * time.Minute
	DefaultReminderLeadTime = 1 * time.Hour
	DefaultReminderBatch    = 100

	DefaultPaginationLimit = 100
)

const (
	IdempotencyStoreMemory = "memory"
	IdempotencyStoreRedis  = "redis"

	TransportKafka = "kafka"
	TransportEmail = "email"
	TransportNoop  = "noop"
)
