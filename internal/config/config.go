// Package config assembles runtime settings for the banksync CLI.
//
// Sources are applied in order, later ones winning: built-in defaults, a
// .env file plus process environment, a JSON file named via -c/-config, and
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the banksync CLI.
//
// Units: AuthTokenTTL is a time.Duration. BackendDSN empty selects the
// in-memory backend; a postgres:// DSN selects the Postgres backend.
type Config struct {
	BackendDSN      string
	SessionFile     string
	QuoteAPIBaseURL string
	QuoteAPIToken   string
	AuthSecret      string
	AuthTokenTTL    time.Duration
	RecentTxLimit   int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendDSN = ""
	c.SessionFile = defaultSessionFile()
	c.QuoteAPIBaseURL = "https://brapi.dev/api"
	c.QuoteAPIToken = ""
	c.AuthSecret = ""
	c.AuthTokenTTL = 24 * time.Hour
	c.RecentTxLimit = 20
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, JSON (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".banksync", "session.json")
}
