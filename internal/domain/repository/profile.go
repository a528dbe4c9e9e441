package repository

import (
	"context"
	"time"
)

// Profile es el registro de perfil de un usuario.
// ActiveTenantID es el puntero mutable de tenant activo: el único estado
// durable que este core escribe. RawRole llega tal cual está en el store
// (puede venir sucio); la normalización es responsabilidad del caller.
type Profile struct {
	UserID         string
	ActiveTenantID *string
	RawRole        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfileRepository define el acceso a perfiles de usuario.
type ProfileRepository interface {
	// GetProfile retorna el perfil del usuario. ErrNotFound si no existe.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// SetActiveTenant actualiza el puntero de tenant activo de forma atómica.
	// La actualización tiene que ser un único statement keyed por userID,
	// condicionado a que exista membership — nunca un read-modify-write que
	// el cliente pueda correr en carrera.
	//
	// Errores: ErrNotFound si el tenant no existe, ErrAccessDenied si el
	// usuario no es miembro del tenant pedido.
	SetActiveTenant(ctx context.Context, userID, tenantID string) error
}
