package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	conf := Default()
	require.NotNil(t, conf)

	assert.False(t, conf.IsDevelopment)
	assert.Equal(t, ":7777", conf.RESTListenAddress)
	assert.Equal(t, 30*time.Second, conf.StopTimeout)

	assert.Equal(t, "onton_order=", conf.Payments.CommentPrefix)
	assert.InDelta(t, 0.000001, conf.Payments.AmountEpsilon, 1e-12)
	assert.Equal(t, 12*time.Hour, conf.Payments.FallbackWindow)

	assert.Equal(t, 300, conf.Rewards.BatchSize)
	assert.Equal(t, 10*time.Second, conf.Rewards.RateLimitCooldown)
	assert.Equal(t, 3, conf.Rewards.MaxAttempts)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"IsDevelopment": true,
		"Payments": {
			"WalletAddress": "0:11",
			"PollInterval": "5s"
		},
		"Rewards": {
			"BatchSize": 10
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)

	assert.True(t, conf.IsDevelopment)
	assert.Equal(t, "0:11", conf.Payments.WalletAddress)
	assert.Equal(t, 5*time.Second, conf.Payments.PollInterval)
	assert.Equal(t, 10, conf.Rewards.BatchSize)

	// Untouched sections keep their defaults
	assert.Equal(t, "onton_order=", conf.Payments.CommentPrefix)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
