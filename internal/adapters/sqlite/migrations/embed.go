// Package migrations holds the schema of the local SQLite slot database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
