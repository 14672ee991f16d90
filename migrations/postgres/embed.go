// Package postgres embeds the PostgreSQL schema migrations applied at startup.
package postgres

import "embed"

//go:embed *.sql
var Files embed.FS
