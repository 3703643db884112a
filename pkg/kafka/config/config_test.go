package kafka_config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " broker-1:9092 , ,broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultProducerRequireAcks, cfg.Producer.RequireAcks)
	assert.Equal(t, int64(DefaultConsumerStartOffset), cfg.Consumer.StartOffset)
	assert.True(t, cfg.EnableMiddleware)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvProducerCompression, "ZSTD")
	t.Setenv(EnvConsumerMaxRetries, "9")
	t.Setenv(EnvConsumerRetryBackoff, "2s")
	t.Setenv(EnvKafkaEnableMiddleware, "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "zstd", cfg.Producer.Compression)
	assert.Equal(t, 9, cfg.Consumer.MaxRetries)
	assert.Equal(t, "2s", cfg.Consumer.RetryBackoff.String())
	assert.False(t, cfg.EnableMiddleware)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{"no brokers", map[string]string{EnvKafkaBrokers: " , "}, "broker"},
		{"compression", map[string]string{EnvProducerCompression: "brotli"}, "compression"},
		{"acks", map[string]string{EnvProducerRequireAcks: "2"}, "acks"},
		{"start offset", map[string]string{EnvConsumerStartOffset: "5"}, "start offset"},
		{"heartbeat", map[string]string{EnvConsumerHeartbeatInterval: "40s"}, "heartbeat"},
		{"retries", map[string]string{EnvConsumerMaxRetries: "-1"}, "retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
