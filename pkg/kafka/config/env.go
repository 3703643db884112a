package kafka_config

const (
	EnvKafkaBrokers          = "KAFKA_BROKERS"
	EnvKafkaEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"

	EnvProducerMaxAttempts  = "NOTIFICATION_KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchTimeout = "NOTIFICATION_KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvProducerRequireAcks  = "NOTIFICATION_KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvProducerCompression  = "NOTIFICATION_KAFKA_PRODUCER_COMPRESSION"

	EnvConsumerStartOffset       = "NOTIFICATION_KAFKA_CONSUMER_START_OFFSET"
	EnvConsumerMinBytes          = "NOTIFICATION_KAFKA_CONSUMER_MIN_BYTES"
	EnvConsumerMaxBytes          = "NOTIFICATION_KAFKA_CONSUMER_MAX_BYTES"
	EnvConsumerMaxWait           = "NOTIFICATION_KAFKA_CONSUMER_MAX_WAIT"
	EnvConsumerCommitInterval    = "NOTIFICATION_KAFKA_CONSUMER_COMMIT_INTERVAL"
	EnvConsumerHeartbeatInterval = "NOTIFICATION_KAFKA_CONSUMER_HEARTBEAT_INTERVAL"
	EnvConsumerSessionTimeout    = "NOTIFICATION_KAFKA_CONSUMER_SESSION_TIMEOUT"
	EnvConsumerRebalanceTimeout  = "NOTIFICATION_KAFKA_CONSUMER_REBALANCE_TIMEOUT"
	EnvConsumerMaxRetries        = "NOTIFICATION_KAFKA_CONSUMER_MAX_RETRIES"
	EnvConsumerRetryBackoff      = "NOTIFICATION_KAFKA_CONSUMER_RETRY_BACKOFF"
)
