package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied indica que el store rechazó la operación por políticas
	// de acceso (row-level security, membership faltante).
	ErrAccessDenied = errors.New("access denied")

	// ErrNoActiveTenant indica que el perfil existe pero no tiene puntero
	// de tenant activo seteado.
	ErrNoActiveTenant = errors.New("no active tenant")

	// ErrNoDatabase indica que no hay base de datos configurada.
	ErrNoDatabase = errors.New("no database configured")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied verifica si el error es ErrAccessDenied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
