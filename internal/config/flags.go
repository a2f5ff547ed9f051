package config

import (
	"flag"
	"os"
	"time"

	"github.com/bytebank/banksync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   backend DSN; empty keeps the in-memory backend
//	-s string   path of the persisted session snapshot
//	-q string   base URL of the market-data API
//	-t string   market-data API token
//	-l int      recent-movements window size
//	-ttl string session token lifetime, Go duration syntax
//
// os.Args is filtered through flagx.FilterArgs so flags owned by other
// packages pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-q", "-t", "-l", "-ttl"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendDSN, "d", cfg.BackendDSN, "backend DSN (empty = in-memory)")
	fs.StringVar(&cfg.SessionFile, "s", cfg.SessionFile, "session snapshot file")
	fs.StringVar(&cfg.QuoteAPIBaseURL, "q", cfg.QuoteAPIBaseURL, "market-data API base URL")
	fs.StringVar(&cfg.QuoteAPIToken, "t", cfg.QuoteAPIToken, "market-data API token")
	fs.IntVar(&cfg.RecentTxLimit, "l", cfg.RecentTxLimit, "recent-movements window size")
	ttl := fs.String("ttl", cfg.AuthTokenTTL.String(), "session token lifetime")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if d, err := time.ParseDuration(*ttl); err == nil {
		cfg.AuthTokenTTL = d
	}
}
