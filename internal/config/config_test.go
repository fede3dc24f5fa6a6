package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "generation", cfg.Socket.Namespace)
	assert.Equal(t, 5, cfg.Socket.ReconnectAttempts)
	assert.True(t, cfg.Socket.AwaitConnectFrame)
	assert.Equal(t, 10*time.Minute, cfg.Tracker.SafetyTimeout)
	assert.Equal(t, []string{"duo", "solo", "flatlay_front"}, cfg.Tracker.DefaultShotTypes)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: "9100"
  apiKey: secret
tracker:
  pollInterval: 2s
  safetyTimeout: 1m
discord:
  botToken: token
  channelId: "123"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.ApiKey)
	assert.Equal(t, 2*time.Second, cfg.Tracker.PollInterval)
	assert.Equal(t, time.Minute, cfg.Tracker.SafetyTimeout)
	assert.Equal(t, "123", cfg.Discord.ChannelId)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	content := `
discord:
  botToken: token
log:
  level: verbose
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
