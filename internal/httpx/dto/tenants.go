package dto

import "github.com/dropDatabas3/tenantcore/internal/domain/types"

// MembershipItem es una membership en la respuesta de GET /v1/tenants.
type MembershipItem struct {
	TenantID    string `json:"tenant_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	IsPrimary   bool   `json:"is_primary"`
}

// TenantsResponse es la respuesta de GET /v1/tenants.
// ActiveTenantID queda vacío si el usuario todavía no tiene puntero.
type TenantsResponse struct {
	Memberships    []MembershipItem `json:"memberships"`
	ActiveTenantID string           `json:"active_tenant_id"`
}

// SwitchRequest es el body de POST /v1/tenants/switch.
type SwitchRequest struct {
	TenantID string `json:"tenant_id"`
}

// SwitchResponse refleja el nuevo estado durable del puntero.
type SwitchResponse struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       string `json:"role"`
}

// MembershipItemFrom convierte la membership de dominio al shape del wire.
func MembershipItemFrom(m types.TenantMembership) MembershipItem {
	return MembershipItem{
		TenantID:    m.TenantID,
		Role:        m.Role.String(),
		DisplayName: m.DisplayName,
		IsPrimary:   m.IsPrimary,
	}
}
