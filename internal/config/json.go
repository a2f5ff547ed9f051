package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bytebank/banksync/internal/flagx"
	"github.com/bytebank/banksync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the token TTL either as a string like
// "24h" or as integer nanoseconds. Zero-valued fields leave the overlaid
// Config untouched.
type JsonConfig struct {
	BackendDSN      string         `json:"backend_dsn"`
	SessionFile     string         `json:"session_file"`
	QuoteAPIBaseURL string         `json:"quote_api_base_url"`
	QuoteAPIToken   string         `json:"quote_api_token"`
	AuthSecret      string         `json:"auth_secret"`
	AuthTokenTTL    timex.Duration `json:"auth_token_ttl"`
	RecentTxLimit   int            `json:"recent_tx_limit"`
}

// parseJson overlays Config with values loaded from the JSON file named via
// the -c/-config flags. No flag means no JSON. Panics on read or unmarshal
// errors; a broken config file should stop startup.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BackendDSN != "" {
		cfg.BackendDSN = jc.BackendDSN
	}
	if jc.SessionFile != "" {
		cfg.SessionFile = jc.SessionFile
	}
	if jc.QuoteAPIBaseURL != "" {
		cfg.QuoteAPIBaseURL = jc.QuoteAPIBaseURL
	}
	if jc.QuoteAPIToken != "" {
		cfg.QuoteAPIToken = jc.QuoteAPIToken
	}
	if jc.AuthSecret != "" {
		cfg.AuthSecret = jc.AuthSecret
	}
	if jc.AuthTokenTTL.Duration != 0 {
		cfg.AuthTokenTTL = time.Duration(jc.AuthTokenTTL.Duration)
	}
	if jc.RecentTxLimit > 0 {
		cfg.RecentTxLimit = jc.RecentTxLimit
	}
}
