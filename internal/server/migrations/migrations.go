// Package migrations embeds the gateway's goose migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
