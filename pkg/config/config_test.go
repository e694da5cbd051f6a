package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Engine.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.Engine.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.Engine.LockTimeout)
	assert.Equal(t, 5*time.Second, cfg.Engine.PublishTimeout)
	assert.Equal(t, 30, cfg.Engine.ExpiringWindowDays)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Kafka.Enabled(), "sin brokers Kafka queda deshabilitado")
	assert.False(t, cfg.Otel.Enabled())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("ENGINE_LOCK_TIMEOUT_MS", "250")
	t.Setenv("EXPIRING_WINDOW_DAYS", "45")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Engine.StoreBackend)
	assert.Equal(t, BackendRedis, cfg.Engine.LockBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.LockTimeout)
	assert.Equal(t, 45, cfg.Engine.ExpiringWindowDays)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_BackendInvalido(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TimeoutNoPositivo(t *testing.T) {
	t.Setenv("ENGINE_LOCK_TIMEOUT_MS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "lotes", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/lotes?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
