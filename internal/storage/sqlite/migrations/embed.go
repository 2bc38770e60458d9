// Package migrations embeds the SQLite schema for prisoner-alerts storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations.
//
//go:embed *.sql
var FS embed.FS
