package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, 10000, c.Server.Port)
	assert.Equal(t, "https://fapi.binance.com", c.Upstream.BaseURL)
	assert.Equal(t, 8*time.Second, c.Upstream.Timeout)
	assert.Equal(t, 50, c.Snapshot.DefaultN)
	assert.Equal(t, 20, c.Snapshot.MinN)
	assert.Equal(t, 100, c.Snapshot.MaxN)
	assert.Equal(t, "5m", c.Snapshot.Interval)
	assert.Equal(t, "1h", c.Snapshot.RegimeInterval)
	assert.Equal(t, 200, c.Snapshot.EMAPeriod)
	assert.Equal(t, 250, c.Snapshot.RegimeBars)
	assert.Equal(t, 5*time.Second, c.Snapshot.MinTTL)
	assert.Equal(t, 30*time.Second, c.Snapshot.CoverageTolerance)
	assert.True(t, c.Metrics.Enabled)
}

func TestParseKeepsExplicitValues(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 8080
  cors: false
metrics:
  enabled: false
snapshot:
  default_n: 30
guards:
  min_depth_qty: 42
`))
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, 30, c.Snapshot.DefaultN)
	assert.Equal(t, 42.0, c.Guards.MinDepthQty)
	assert.Equal(t, 0.5, c.Guards.DistMin)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("snapshot:\n  interval: 7m\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("snapshot:\n  min_n: 50\n  max_n: 10\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("log:\n  level: verbose\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	err = c.ApplyEnv(envOf(map[string]string{
		"BINANCE_BASE_URL": "https://testnet.binancefuture.com/fapi/v1",
		"SNAPSHOT_N":       "60",
		"TRADES_LIMIT":     "600",
		"HTTP_TIMEOUT":     "2.5",
		"PORT":             "9000",
		"LOG_LEVEL":        "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://testnet.binancefuture.com/fapi/v1", c.Upstream.BaseURL)
	assert.Equal(t, 60, c.Snapshot.DefaultN)
	assert.Equal(t, 600, c.Upstream.TradesPageLimit)
	assert.Equal(t, 2500*time.Millisecond, c.Upstream.Timeout)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Error(t, c.ApplyEnv(envOf(map[string]string{"HTTP_TIMEOUT": "soon"})))
	assert.Error(t, c.ApplyEnv(envOf(map[string]string{"PORT": "http"})))
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	t.Setenv("PORT", "12345")
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12345, c.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  max_retries: 4\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Upstream.MaxRetries)
}
