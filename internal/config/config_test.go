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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DataBackend)
	assert.Equal(t, "file", cfg.ModelStore)
	assert.Equal(t, 5000.0, cfg.DistanceThreshold)
	assert.Equal(t, 180, cfg.TimeThresholdDays)
	assert.Equal(t, 1.0, cfg.RidgeAlpha)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.AuthEnabled)
	assert.Empty(t, cfg.NotifyURLs)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATA_BACKEND", "Mongo")
	t.Setenv("DISTANCE_THRESHOLD", "7500")
	t.Setenv("TIME_THRESHOLD_DAYS", "90")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("HOLDOUT_FRACTION", "0.2")
	t.Setenv("NOTIFY_URLS", "generic://example.com/hook, ,telegram://token@telegram?chats=1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.DataBackend)
	assert.Equal(t, 7500.0, cfg.DistanceThreshold)
	assert.Equal(t, 90, cfg.TimeThresholdDays)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, 0.2, cfg.HoldoutFraction)
	assert.Equal(t, []string{"generic://example.com/hook", "telegram://token@telegram?chats=1"}, cfg.NotifyURLs)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparseable duration", "CACHE_TTL", "soon"},
		{"unparseable int", "TIME_THRESHOLD_DAYS", "half a year"},
		{"unknown backend", "DATA_BACKEND", "postgres"},
		{"unknown model store", "MODEL_STORE", "s3"},
		{"negative threshold", "DISTANCE_THRESHOLD", "-1"},
		{"holdout out of range", "HOLDOUT_FRACTION", "1"},
		{"nan threshold", "DISTANCE_THRESHOLD", "NaN"},
		{"infinite threshold", "DISTANCE_THRESHOLD", "+Inf"},
		{"time threshold beyond horizon", "TIME_THRESHOLD_DAYS", "100000"},
		{"nan alpha", "RIDGE_ALPHA", "NaN"},
		{"nan holdout", "HOLDOUT_FRACTION", "NaN"},
		{"zero cache ttl", "CACHE_TTL", "0s"},
		{"negative cache ttl", "CACHE_TTL", "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
