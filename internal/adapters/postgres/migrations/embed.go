// Package migrations holds the remote directory schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
