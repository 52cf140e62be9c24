package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smscsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2775, cfg.Server.Port)
	assert.Equal(t, 8728, cfg.Server.AdminPort)
	assert.Equal(t, 1000, cfg.Server.MaxConnections)
	assert.Equal(t, time.Second, cfg.Server.TickInterval)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Server.EnquireLinkTimeout)
	assert.Equal(t, smpp.DefaultSystemID, cfg.Server.SystemID)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Zero(t, cfg.Throttle.SubmitsPerSecond)
	assert.True(t, cfg.Features["*"][smpp.FeatureSCInterfaceVersion])

	require.NoError(t, Validate(cfg))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 2776
  admin_port: -1
  tick_interval: 500ms
  delivery_jitter_min: 0s
  delivery_jitter_max: 2s
logging:
  level: DEBUG
  format: json
throttle:
  submits_per_second: 5
  burst: 10
features:
  legacy:
    sc_interface_version: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2776, cfg.Server.Port)
	assert.Equal(t, -1, cfg.Server.AdminPort)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.TickInterval)
	assert.Equal(t, time.Duration(0), cfg.Server.DeliveryJitterMin)
	assert.Equal(t, 2*time.Second, cfg.Server.DeliveryJitterMax)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5.0, cfg.Throttle.SubmitsPerSecond)
	assert.Equal(t, 10, cfg.Throttle.Burst)

	// unset fields keep their defaults
	assert.Equal(t, time.Minute, cfg.Server.EnquireLinkTimeout)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	require.Contains(t, cfg.Features, "legacy")
	assert.False(t, cfg.Features["legacy"][smpp.FeatureSCInterfaceVersion])
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 2776\n")
	t.Setenv("SMSCSIM_SERVER_PORT", "3000")
	t.Setenv("SMSCSIM_SERVER_IDLE_TIMEOUT", "90s")
	t.Setenv("SMSCSIM_METRICS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.IdleTimeout)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"log level", "logging:\n  level: verbose\n", "Level"},
		{"port range", "server:\n  port: 70000\n", "Port"},
		{"jitter order", "server:\n  delivery_jitter_min: 5s\n  delivery_jitter_max: 1s\n", "DeliveryJitterMax"},
		{"negative rate", "throttle:\n  submits_per_second: -1\n", "SubmitsPerSecond"},
		{"system id length", "server:\n  system_id: abcdefghijklmnopq\n", "SystemID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  tick_interval: soon\n"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "smscsim.yaml")

	cfg := Default()
	cfg.Server.Port = 2999
	cfg.Throttle.SubmitsPerSecond = 2.5
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick_interval: 1s")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSMPPServerConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 2800

	sc := cfg.SMPPServerConfig()
	assert.Equal(t, 2800, sc.Port)
	assert.Equal(t, cfg.Server.TickInterval, sc.TickInterval)
	assert.Equal(t, cfg.Server.SystemID, sc.SystemID)
	assert.Equal(t, cfg.Server.DeliveryJitterMax, sc.DeliveryJitterMax)
}
