// Package dto define los shapes del wire de la API pública.
package dto

import "github.com/dropDatabas3/tenantcore/internal/domain/types"

// ContextResponse es la respuesta de GET /v1/context.
type ContextResponse struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// ContextResponseFrom arma la respuesta desde el Context resuelto.
func ContextResponseFrom(c types.Context) ContextResponse {
	return ContextResponse{
		UserID:   c.UserID,
		TenantID: c.TenantID,
		Role:     c.Role.String(),
	}
}
