// ABOUTME: Embedded goose migrations for the Postgres document table
// ABOUTME: Consumed by the postgres driver at startup

// Package migrations embeds the Postgres schema migrations for the document store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
