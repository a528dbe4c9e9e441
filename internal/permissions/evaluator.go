// Package permissions resuelve un rol coarse-grained para gating de UI
// (mostrar/ocultar botones). Es advisory-only: NUNCA es un boundary de
// seguridad — el único punto de enforcement es el Context Service.
//
// Por ser advisory, acá sí se permite cachear (a diferencia del Context,
// que se resuelve fresco en cada request).
package permissions

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/tenantcore/internal/cache"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// Source indica de qué camino salió el rol.
type Source string

const (
	// SourceProfile: camino primario, el rol del perfil.
	SourceProfile Source = "profile"
	// SourceMembership: fallback, el rol de la membership (schema legacy).
	SourceMembership Source = "membership"
	// SourceUnknown: la resolución falló o venció el timeout. El rol
	// acompañante es SIEMPRE el de mínimo privilegio; la UI debería mostrar
	// un estado "permisos desconocidos" en vez de asumir acceso.
	SourceUnknown Source = "unknown"
)

// Decision es el resultado advisory.
type Decision struct {
	Role   types.Role `json:"role"`
	Source Source     `json:"source"`
}

// Evaluator resuelve el rol advisory con camino primario + fallback,
// acotado por un timeout fijo.
//
// Ante timeout o fallo total NO se degrada al rol más privilegiado (el
// comportamiento heredado de "no dejar a nadie afuera" era un bug de
// seguridad): se retorna mínimo privilegio + SourceUnknown.
type Evaluator struct {
	profiles repository.ProfileRepository
	tenants  repository.TenantRepository
	cache    cache.Client
	timeout  time.Duration
	cacheTTL time.Duration
}

// New arma el evaluator. cache puede ser nil (sin cache).
func New(profiles repository.ProfileRepository, tenants repository.TenantRepository, c cache.Client, timeout, cacheTTL time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Evaluator{
		profiles: profiles,
		tenants:  tenants,
		cache:    c,
		timeout:  timeout,
		cacheTTL: cacheTTL,
	}
}

// Evaluate resuelve la Decision para (userID, tenantID).
// Nunca retorna error: un evaluador advisory que falla vale tanto como uno
// que no existe, así que todo fallo colapsa en (viewer, unknown).
func (e *Evaluator) Evaluate(ctx context.Context, userID, tenantID string) Decision {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("permissions.Evaluate"))

	if key := e.cacheKey(userID, tenantID); e.cache != nil && e.cacheTTL > 0 {
		if v, err := e.cache.Get(ctx, key); err == nil {
			if d, ok := decodeDecision(v); ok {
				return d
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Ambos caminos corren en paralelo dentro del mismo deadline; el
	// primario gana si produce un rol usable.
	var primary, fallback string
	var primaryOK, fallbackOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prof, err := e.profiles.GetProfile(gctx, userID)
		if err == nil && strings.TrimSpace(prof.RawRole) != "" {
			primary, primaryOK = prof.RawRole, true
		}
		return nil // los fallos de un camino no cancelan el otro
	})
	g.Go(func() error {
		m, err := e.tenants.GetMembership(gctx, userID, tenantID)
		if err == nil {
			fallback, fallbackOK = string(m.Role), true
		}
		return nil
	})
	_ = g.Wait()

	var d Decision
	switch {
	case ctx.Err() != nil && !primaryOK && !fallbackOK:
		log.Warn("permission resolution timed out", logger.UserID(userID), logger.TenantID(tenantID))
		d = Decision{Role: types.RoleViewer, Source: SourceUnknown}
	case primaryOK:
		d = Decision{Role: types.NormalizeRole(primary), Source: SourceProfile}
	case fallbackOK:
		d = Decision{Role: types.NormalizeRole(fallback), Source: SourceMembership}
	default:
		d = Decision{Role: types.RoleViewer, Source: SourceUnknown}
	}

	if key := e.cacheKey(userID, tenantID); e.cache != nil && e.cacheTTL > 0 && d.Source != SourceUnknown {
		_ = e.cache.Set(ctx, key, encodeDecision(d), e.cacheTTL)
	}
	return d
}

func (e *Evaluator) cacheKey(userID, tenantID string) string {
	return "perm:" + userID + ":" + tenantID
}

func encodeDecision(d Decision) string {
	return string(d.Role) + "|" + string(d.Source)
}

func decodeDecision(v string) (Decision, bool) {
	parts := strings.SplitN(v, "|", 2)
	if len(parts) != 2 {
		return Decision{}, false
	}
	role := types.Role(parts[0])
	if !role.Valid() {
		return Decision{}, false
	}
	return Decision{Role: role, Source: Source(parts[1])}, true
}
