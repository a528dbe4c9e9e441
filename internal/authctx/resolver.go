// Package authctx implementa la resolución de contexto tenant-scoped:
// bearer token → (user_id, tenant_id, role). La cadena es stateless, se
// ejecuta completa por request y falla cerrada ante cualquier ambigüedad.
package authctx

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
)

// ErrUnauthorized colapsa todos los fallos de resolución que tienen que
// fallar cerrado: credencial inválida, perfil inexistente, puntero de tenant
// nulo o tenant no resolvible. Nunca degradamos a "sin tenant" y seguimos.
var ErrUnauthorized = errors.New("authctx: unauthorized")

// Resolution es el resultado crudo del two-hop lookup, antes de normalizar.
type Resolution struct {
	TenantID   string
	TenantName string
	RawRole    string
}

// TenantRoleResolver resuelve tenant y rol crudo para un usuario verificado.
// Ambos hops van por el mismo camino con control de acceso que usaría una
// query directa del cliente (la credencial viaja en el ctx vía
// repository.WithCredential); el resolver no mira datos que el usuario no
// podría ver por sí mismo.
type TenantRoleResolver struct {
	profiles repository.ProfileRepository
	tenants  repository.TenantRepository
}

// NewTenantRoleResolver arma el resolver con los repositorios inyectados.
// Sin singletons: el caller decide el store concreto (pg, memory, fakes).
func NewTenantRoleResolver(profiles repository.ProfileRepository, tenants repository.TenantRepository) *TenantRoleResolver {
	return &TenantRoleResolver{profiles: profiles, tenants: tenants}
}

// Resolve ejecuta el two-hop lookup. Ambos hops son obligatorios:
//
//  1. perfil del usuario → puntero de tenant activo
//  2. puntero → registro concreto del tenant
//
// Perfil inexistente, puntero nulo o tenant inexistente → ErrUnauthorized.
func (r *TenantRoleResolver) Resolve(ctx context.Context, userID string) (*Resolution, error) {
	prof, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("profile not found: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if prof.ActiveTenantID == nil || *prof.ActiveTenantID == "" {
		return nil, fmt.Errorf("no active tenant: %w", ErrUnauthorized)
	}

	ten, err := r.tenants.GetTenant(ctx, *prof.ActiveTenantID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("tenant not found: %w", ErrUnauthorized)
		}
		return nil, err
	}

	return &Resolution{
		TenantID:   ten.ID,
		TenantName: ten.Name,
		RawRole:    prof.RawRole,
	}, nil
}
