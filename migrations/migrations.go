// Package migrations embeds the SQL schema scripts for the database backends.
package migrations

import "embed"

//go:embed sqlite/*.sql
var FS embed.FS
