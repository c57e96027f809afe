// Package migrations holds the numbered schema migrations of the SQLite
// store, applied in order when the store opens.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
