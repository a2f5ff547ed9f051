package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Empty(t, c.BackendDSN)
	assert.Equal(t, "https://brapi.dev/api", c.QuoteAPIBaseURL)
	assert.Equal(t, 24*time.Hour, c.AuthTokenTTL)
	assert.Equal(t, 20, c.RecentTxLimit)
	assert.NotEmpty(t, c.SessionFile)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("BANKSYNC_BACKEND_DSN", "postgres://localhost/bank")
	t.Setenv("BANKSYNC_AUTH_TOKEN_TTL", "30m")
	t.Setenv("BANKSYNC_RECENT_TX_LIMIT", "50")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "postgres://localhost/bank", c.BackendDSN)
	assert.Equal(t, 30*time.Minute, c.AuthTokenTTL)
	assert.Equal(t, 50, c.RecentTxLimit)
}

func TestParseEnv_IgnoresInvalidValues(t *testing.T) {
	t.Setenv("BANKSYNC_AUTH_TOKEN_TTL", "soon")
	t.Setenv("BANKSYNC_RECENT_TX_LIMIT", "-3")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 24*time.Hour, c.AuthTokenTTL)
	assert.Equal(t, 20, c.RecentTxLimit)
}

func TestParseJson_Overlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	payload := map[string]any{
		"backend_dsn":    "postgres://db/bank",
		"auth_secret":    "hunter2",
		"auth_token_ttl": "2h",
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, "postgres://db/bank", c.BackendDSN)
	assert.Equal(t, "hunter2", c.AuthSecret)
	assert.Equal(t, 2*time.Hour, c.AuthTokenTTL)
	// Untouched fields keep their defaults.
	assert.Equal(t, 20, c.RecentTxLimit)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "https://brapi.dev/api", cfg.QuoteAPIBaseURL)
	assert.Equal(t, 20, cfg.RecentTxLimit)
}
