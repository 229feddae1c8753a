// Package migrations holds the SQLite schema and applies it in file name
// order.
package migrations

import "embed"

// FS contains the migration files.
//
//go:embed *.sql
var FS embed.FS
