package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/medassist/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, "medassist", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 384, cfg.OpenAI.EmbeddingDimensions)

	assert.Equal(t, 4, cfg.Worker.LLMWorkers)
	assert.Equal(t, 2, cfg.Worker.APIWorkers)
	assert.Equal(t, 256, cfg.Worker.QueueDepth)
	assert.Equal(t, 24*time.Hour, cfg.Worker.TaskRetention)
	assert.Equal(t, 120*time.Second, cfg.Worker.AwaitTimeout)

	assert.Equal(t, "linear", cfg.Retrieval.Strategy)
	assert.Equal(t, 3, cfg.Retrieval.TopK)

	assert.Equal(t, 5, cfg.PubMed.DefaultRetMax)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RETRIEVAL_STRATEGY", "pgvector")
	t.Setenv("RETRIEVAL_TOP_K", "10")
	t.Setenv("TASK_AWAIT_TIMEOUT_SECONDS", "15")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "pgvector", cfg.Retrieval.Strategy)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 15*time.Second, cfg.Worker.AwaitTimeout)
	assert.True(t, cfg.OTEL.Enabled)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "medassist",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=app password=secret dbname=medassist sslmode=require",
		cfg.DatabaseDSN(),
	)
}

func TestRedisAddr(t *testing.T) {
	cfg := config.RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}
