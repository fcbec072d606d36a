// Package migrations embeds the postgres schema migration files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
