package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgFile = ""
		forceInit = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2024-03-15")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "smscsim 1.2.3 (commit: abc123, built: 2024-03-15)\n", out)
}

func TestConfigInitAndPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smscsim.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port: 2775")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing file is not overwritten without --force")

	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "print")
	require.NoError(t, err)
	assert.Contains(t, out, "system_id: SMSCSIM")
	assert.Contains(t, out, "idle_timeout: 2m0s")
}

func TestStartRejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smscsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 2775\n"), 0o644))

	t.Cleanup(func() { logLevelFlag = "" })
	_, err := execute(t, "--config", path, "start", "--log-level", "chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Level")
}
