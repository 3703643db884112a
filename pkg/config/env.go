package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout   = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL   = "IDEMPOTENCY_TTL"
	EnvIdempotencyStore = "IDEMPOTENCY_STORE"
	EnvMaxRequestSize   = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvRedisURL      = "REDIS_URL"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisUsername = "REDIS_USERNAME"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvSlotLockTTL   = "SLOT_LOCK_TTL"

	EnvJWTSecret   = "JWT_SECRET"
	EnvJWTLeeway   = "JWT_LEEWAY"
	EnvDevTokenTTL = "DEV_TOKEN_TTL"

	EnvNotificationTransport = "NOTIFICATION_TRANSPORT"
	EnvNotificationTopic     = "NOTIFICATION_TOPIC"
	EnvNotificationDLQTopic  = "NOTIFICATION_DLQ_TOPIC"
	EnvNotificationGroupID   = "NOTIFICATION_GROUP_ID"
	EnvNotificationTimeout   = "NOTIFICATION_TIMEOUT"
	EnvNotificationDedupTTL  = "NOTIFICATION_DEDUP_TTL"

	EnvMailProvider          = "MAIL_PROVIDER"
	EnvMailFromAddress       = "MAIL_FROM_ADDRESS"
	EnvMailFromName          = "MAIL_FROM_NAME"
	EnvSESRegion             = "SES_REGION"
	EnvSESAccessKeyID        = "SES_ACCESS_KEY_ID"
	EnvSESSecretAccessKey    = "SES_SECRET_ACCESS_KEY"
	EnvSESInsecureSkipVerify = "SES_INSECURE_SKIP_VERIFY"

	EnvVideoLinkBaseURL = "VIDEO_LINK_BASE_URL"

	EnvReminderInterval = "REMINDER_INTERVAL"
	EnvReminderLeadTime = "REMINDER_LEAD_TIME"
	EnvReminderBatch    = "REMINDER_BATCH_SIZE"
)
