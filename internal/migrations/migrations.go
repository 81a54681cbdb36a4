// Package migrations embeds the goose SQL migrations of both local databases.
package migrations

import "embed"

// App holds the application database schema (settings key/value store).
//
//go:embed app/*.sql
var App embed.FS

// Vault holds the credential vault schema. It lives in its own database file
// so secrets are never enumerable next to ordinary settings.
//
//go:embed vault/*.sql
var Vault embed.FS
