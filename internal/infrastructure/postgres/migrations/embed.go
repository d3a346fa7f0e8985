// Package migrations contiene las migraciones SQL embebidas del esquema PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
