package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "postgres", cfg.Agents.VectorBackend)
	assert.Equal(t, "local", cfg.Tools.Mode)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Tools.AlarmCacheTTL)
	assert.Equal(t, 60*time.Second, cfg.Tools.HTTPTimeout)
	assert.Equal(t, "agentbrain", cfg.Tracing.ServiceName)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "5s")
	t.Setenv("ALARMIMG_WTG_API", "http://alarms.internal/api")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, "http://alarms.internal/api", cfg.Tools.AlarmAPIURL)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("ALARM_CACHE_TTL", "five minutes")

	_, err := Load()
	assert.ErrorContains(t, err, "alarm cache ttl")
}
