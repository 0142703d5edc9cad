// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones de Postgres (*_up.sql / *_down.sql).
//
//go:embed *.sql
var FS embed.FS
