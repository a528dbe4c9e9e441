// Package tenants implementa la lógica de GET /v1/tenants y
// POST /v1/tenants/switch.
package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/tenantcore/internal/audit"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// Service resuelve memberships y ejecuta el switch de tenant activo.
type Service struct {
	profiles repository.ProfileRepository
	tenants  repository.TenantRepository
}

// NewService arma el service con los repos inyectados.
func NewService(profiles repository.ProfileRepository, tenants repository.TenantRepository) *Service {
	return &Service{profiles: profiles, tenants: tenants}
}

// Overview es el estado que ve el cliente: memberships + puntero actual.
type Overview struct {
	Memberships    []types.TenantMembership
	ActiveTenantID string
}

// List retorna las memberships del usuario y cuál está activa.
// Un usuario sin puntero todavía (post-registro, pre-primer-login completo)
// recibe ActiveTenantID vacío, no un error: necesita la lista para poder
// ejecutar su primer switch.
func (s *Service) List(ctx context.Context, userID string) (*Overview, error) {
	ms, err := s.tenants.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Overview{Memberships: ms}

	prof, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil && prof.ActiveTenantID != nil:
		out.ActiveTenantID = *prof.ActiveTenantID
	case err != nil && !repository.IsNotFound(err):
		return nil, err
	}
	return out, nil
}

// Switch actualiza el puntero de tenant activo y retorna el nuevo estado
// durable. La escritura es un único update atómico keyed por userID (ver
// ProfileRepository.SetActiveTenant): acá no hay read-modify-write que un
// cliente pueda correr en carrera.
func (s *Service) Switch(ctx context.Context, userID, tenantID string) (*types.ActiveTenant, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("tenants.Switch"))

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id requerido: %w", repository.ErrInvalidInput)
	}

	if err := s.profiles.SetActiveTenant(ctx, userID, tenantID); err != nil {
		if repository.IsAccessDenied(err) {
			audit.Log(ctx, audit.EventTenantSwitchDenied,
				logger.UserID(userID), logger.TenantID(tenantID))
		}
		return nil, err
	}

	// El update ya confirmó membership; esta lectura solo completa nombre y
	// rol para la respuesta.
	m, err := s.tenants.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}

	log.Info("active tenant switched", logger.UserID(userID), logger.TenantID(tenantID))
	audit.Log(ctx, audit.EventTenantSwitch,
		logger.UserID(userID), logger.TenantID(tenantID), logger.Role(m.Role.String()))

	return &types.ActiveTenant{
		TenantID:   m.TenantID,
		TenantName: m.DisplayName,
		Role:       m.Role,
	}, nil
}
