package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from a .env file in the working
// directory (if present) and the process environment. Process environment
// wins over .env per godotenv semantics.
//
// Variables:
//
//	BANKSYNC_BACKEND_DSN       Postgres DSN; empty keeps the in-memory backend
//	BANKSYNC_SESSION_FILE      path of the persisted session snapshot
//	BANKSYNC_QUOTE_API_URL     base URL of the market-data API
//	BANKSYNC_QUOTE_API_TOKEN   market-data API token
//	BANKSYNC_AUTH_SECRET       HMAC secret for session tokens
//	BANKSYNC_AUTH_TOKEN_TTL    token lifetime, Go duration syntax (e.g. 24h)
//	BANKSYNC_RECENT_TX_LIMIT   size of the recent-movements window
func parseEnv(cfg *Config) {
	_ = godotenv.Load() // ok if missing

	if v := os.Getenv("BANKSYNC_BACKEND_DSN"); v != "" {
		cfg.BackendDSN = v
	}
	if v := os.Getenv("BANKSYNC_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("BANKSYNC_QUOTE_API_URL"); v != "" {
		cfg.QuoteAPIBaseURL = v
	}
	if v := os.Getenv("BANKSYNC_QUOTE_API_TOKEN"); v != "" {
		cfg.QuoteAPIToken = v
	}
	if v := os.Getenv("BANKSYNC_AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("BANKSYNC_AUTH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AuthTokenTTL = d
		}
	}
	if v := os.Getenv("BANKSYNC_RECENT_TX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecentTxLimit = n
		}
	}
}
