package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "@Campus.EDU")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "campus.edu", cfg.AllowedEmailDomain)
	assert.Greater(t, cfg.SendRatePerMinute, 0)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("WS_PING_INTERVAL", "15s")
	assert.Equal(t, 15*time.Second, getEnvAsDuration("WS_PING_INTERVAL", time.Minute))

	t.Setenv("WS_PING_INTERVAL", "bogus")
	assert.Equal(t, time.Minute, getEnvAsDuration("WS_PING_INTERVAL", time.Minute))

	t.Setenv("WS_PING_INTERVAL", "-5s")
	assert.Equal(t, time.Minute, getEnvAsDuration("WS_PING_INTERVAL", time.Minute))
}

func TestGetEnvAsBoolAndInt(t *testing.T) {
	t.Setenv("FLAG", "false")
	assert.False(t, getEnvAsBool("FLAG", true))

	t.Setenv("FLAG", "nope")
	assert.True(t, getEnvAsBool("FLAG", true))

	t.Setenv("COUNT", "42")
	assert.Equal(t, int64(42), getEnvAsInt64("COUNT", 1))

	t.Setenv("COUNT", "x")
	assert.Equal(t, int64(1), getEnvAsInt64("COUNT", 1))
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
