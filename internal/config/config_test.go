package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "pos-events", cfg.KafkaTopic)
	assert.Equal(t, "pos-monitor", cfg.KafkaGroup)
	assert.Equal(t, "register.db", cfg.LocalStorePath)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 5*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 10*time.Minute, cfg.PlanCacheTTL)
	assert.Equal(t, float64(5), cfg.SyncRate)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":     testSecret,
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"REDIS_ADDR":     "localhost:6379",
		"CORS_ORIGINS":   "http://localhost:5173",
		"REMOTE_TIMEOUT": "3s",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse env:"))
}

func TestLoadFrom_WeakSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{"JWT_SECRET": "short"})

	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret, "SYNC_INTERVAL": "soon"})

	assert.Error(t, err)
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := &Config{JWTSecret: testSecret, SyncRate: -1}

	assert.Error(t, cfg.Validate())
}

func TestLoadMonitorFrom_NoSecretNeeded(t *testing.T) {
	cfg, err := LoadMonitorFrom(map[string]string{"KAFKA_BROKERS": "k1:9092,k2:9092"})

	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "pos-events", cfg.KafkaTopic)
	assert.Equal(t, "pos-monitor", cfg.KafkaGroup)
	assert.Equal(t, time.Minute, cfg.ReportInterval)
}

func TestLoadMonitorFrom_MissingBrokers(t *testing.T) {
	_, err := LoadMonitorFrom(map[string]string{})

	assert.Error(t, err)
}

func TestLoadMonitorFrom_NonPositiveInterval(t *testing.T) {
	_, err := LoadMonitorFrom(map[string]string{"KAFKA_BROKERS": "k1:9092", "MONITOR_REPORT_INTERVAL": "0s"})

	assert.Error(t, err)
}
