package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Lifecycle.OpenQuota)
	assert.Equal(t, 5*time.Second, cfg.Lifecycle.StoreTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Lifecycle.SLA.Window(domain.PriorityCritical))
	assert.Equal(t, 168*time.Hour, cfg.Lifecycle.SLA.Window(domain.PriorityLow))
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLA_HIGH_HOURS", "12")
	t.Setenv("COMPLAINT_OPEN_QUOTA", "3")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_WRITE_TIMEOUT", "300ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.Lifecycle.SLA.Window(domain.PriorityHigh))
	assert.Equal(t, 3, cfg.Lifecycle.OpenQuota)
	assert.Equal(t, 750*time.Millisecond, cfg.Lifecycle.StoreTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 300*time.Millisecond, cfg.Kafka.WriteTimeout)
}

func TestLoadRejectsNonPositiveQuota(t *testing.T) {
	t.Setenv("COMPLAINT_OPEN_QUOTA", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvAsDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("X_DURATION", time.Second))
}
