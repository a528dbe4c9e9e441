// Package migrations embebe los archivos SQL del esquema core.
package migrations

import "embed"

// CoreFS contiene las migraciones del esquema core (tenants, memberships,
// punteros de tenant activo).
//
//go:embed core/*.sql
var CoreFS embed.FS

// CoreDir es el directorio dentro de CoreFS donde viven las migraciones.
const CoreDir = "core"
