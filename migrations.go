// Package repocrawler is the module root. It holds nothing but the embedded
// SQL migrations so that goose can apply them without needing a filesystem
// path relative to the binary's working directory.
package repocrawler

import "embed"

// Migrations embeds every goose migration under migrations/ so the compiled
// binary can self-migrate regardless of its working directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS
