// Package migrations ships the SQL schema with the binary.
package migrations

import "embed"

// FS holds every numbered *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
