package repository

import (
	"context"

	"github.com/dropDatabas3/tenantcore/internal/domain/types"
)

// Tenant es el registro de un tenant (organización/cliente).
type Tenant struct {
	ID   string
	Name string
	Slug string
}

// TenantRepository define el acceso a tenants y memberships.
type TenantRepository interface {
	// GetTenant retorna el tenant por ID. ErrNotFound si no existe.
	GetTenant(ctx context.Context, tenantID string) (*Tenant, error)

	// ListMemberships retorna las memberships del usuario (puede ser vacío).
	ListMemberships(ctx context.Context, userID string) ([]types.TenantMembership, error)

	// GetMembership retorna la membership del usuario en un tenant puntual.
	// ErrNotFound si no es miembro.
	GetMembership(ctx context.Context, userID, tenantID string) (*types.TenantMembership, error)
}

// Store agrupa los repositorios que expone un backend concreto.
type Store interface {
	Profiles() ProfileRepository
	Tenants() TenantRepository

	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera recursos del backend.
	Close() error
}
