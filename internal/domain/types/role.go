package types

import "strings"

// Role es el rol efectivo de un usuario dentro de un tenant.
// Es un enum cerrado: ningún componente downstream debería trabajar con
// strings crudos del store, solo con valores ya normalizados.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"

	// RoleViewer es el rol de mínimo privilegio. Es el default ante cualquier
	// valor desconocido (default-deny: un fallo acá nunca amplía privilegio).
	RoleViewer Role = "viewer"
)

// allowedRoles es la allow-list cerrada de roles conocidos.
var allowedRoles = map[Role]struct{}{
	RoleOwner:  {},
	RoleAdmin:  {},
	RoleMember: {},
	RoleViewer: {},
}

// NormalizeRole convierte un string crudo del store en un Role válido.
// Trim + lowercase + allow-list; cualquier valor fuera de la lista (vacío,
// typo, drift de schema, rol futuro) se degrada a RoleViewer.
//
// Este paso es crítico de seguridad: una migración de DB o un typo jamás
// puede escalar privilegios solo porque el string no matcheó.
func NormalizeRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedRoles[r]; ok {
		return r
	}
	return RoleViewer
}

// Valid indica si el rol pertenece a la allow-list.
func (r Role) Valid() bool {
	_, ok := allowedRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }
