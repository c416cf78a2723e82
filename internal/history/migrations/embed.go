// Package migrations embeds the history schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
