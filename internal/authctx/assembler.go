package authctx

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
	"github.com/dropDatabas3/tenantcore/internal/identity"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// Assembler encadena verificación → resolución → normalización y arma el
// Context inmutable del request. No guarda estado entre requests.
type Assembler struct {
	verifier identity.Verifier
	resolver *TenantRoleResolver
}

// NewAssembler arma el assembler con sus colaboradores inyectados.
func NewAssembler(verifier identity.Verifier, resolver *TenantRoleResolver) *Assembler {
	return &Assembler{verifier: verifier, resolver: resolver}
}

// ExtractBearer saca el token del header Authorization.
// Retorna cadena vacía si el header falta o no tiene forma "Bearer <token>".
func ExtractBearer(authorization string) string {
	ah := strings.TrimSpace(authorization)
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("Bearer "):])
}

// Assemble resuelve el Context para el bearer crudo del request.
// El token se verifica contra el provider exactamente una vez (sin cache) y
// después viaja en el ctx para que los lookups del store apliquen el mismo
// control de acceso que una query directa del usuario.
func (a *Assembler) Assemble(ctx context.Context, bearer string) (types.Context, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Assembler.Assemble"))

	if bearer == "" {
		return types.Context{}, ErrUnauthorized
	}

	userID, err := a.verifier.Verify(ctx, bearer)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return types.Context{}, ErrUnauthorized
		}
		return types.Context{}, err
	}

	ctx = repository.WithCredential(ctx, bearer)

	res, err := a.resolver.Resolve(ctx, userID)
	if err != nil {
		log.Debug("resolution failed", logger.UserID(userID), logger.Err(err))
		return types.Context{}, err
	}

	return types.Context{
		UserID:   userID,
		TenantID: res.TenantID,
		Role:     types.NormalizeRole(res.RawRole),
	}, nil
}
