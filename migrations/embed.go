// Package migrations embeds the SQL schema migrations so the server and
// migrate binaries don't depend on the working directory.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
