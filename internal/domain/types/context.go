package types

// Context es la tripleta inmutable que produce la resolución de contexto.
// Se construye fresca por request y se descarta al responder: nunca se
// cachea entre requests ni se persiste.
//
// Invariante: TenantID tiene que ser re-derivable desde UserID vía el
// two-hop lookup (perfil → puntero de tenant activo → registro de tenant)
// al momento de la resolución. Un Context cuyo tenant no se puede re-derivar
// es inválido y falla cerrado (UNAUTHORIZED).
type Context struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
}

// TenantMembership es la pertenencia de un usuario a un tenant.
// Se crea/destruye fuera de este core (flujos de administración de tenants).
type TenantMembership struct {
	TenantID    string `json:"tenant_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	IsPrimary   bool   `json:"is_primary"`
}

// ActiveTenant describe el estado durable del puntero de tenant activo
// tal como lo reporta el servidor después de un switch.
type ActiveTenant struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       Role   `json:"role"`
}
