// Package identity verifica credenciales emitidas por el identity provider
// externo. Este core nunca autentica usuarios por sí mismo: solo valida
// tokens que emitió el provider.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken es el único error que expone la verificación.
// No distinguimos sub-razones (expirado, revocado, malformado) hacia el
// caller: eso filtraría información sobre existencia de cuentas.
var ErrInvalidToken = errors.New("invalid token")

// Verifier valida un bearer token y retorna el user_id verificado.
// Se invoca exactamente una vez por request, sin cache: un token puede ser
// revocado entre request y request.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}
