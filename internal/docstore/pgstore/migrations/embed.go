// Package migrations embeds the SQL migrations for the Postgres docstore
// backend. Applied with goose at store construction time.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
