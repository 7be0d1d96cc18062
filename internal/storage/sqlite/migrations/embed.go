package migrations

import "embed"

// FS contains embedded SQLite migrations for quiz storage.
//
//go:embed *.sql
var FS embed.FS
