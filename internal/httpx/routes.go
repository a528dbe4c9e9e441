// Package httpx arma el router y el servidor HTTP del core.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tenantcore/internal/httpx/controllers/authn"
	"github.com/dropDatabas3/tenantcore/internal/httpx/controllers/health"
	"github.com/dropDatabas3/tenantcore/internal/httpx/controllers/tenants"
	"github.com/dropDatabas3/tenantcore/internal/httpx/middlewares"
	"github.com/dropDatabas3/tenantcore/internal/identity"
	"github.com/dropDatabas3/tenantcore/internal/rate"
)

// RouterDeps agrupa todo lo que las rutas necesitan ya construido.
type RouterDeps struct {
	Verifier      identity.Verifier
	Context       *authn.ContextController
	Permissions   *authn.PermissionsController
	Tenants       *tenants.TenantsController
	Health        *health.HealthController
	SwitchLimiter rate.Limiter // nil = sin rate limit
	Metrics       http.Handler // nil = sin /metrics
	CORSOrigins   []string     // vacío = sin CORS
}

// NewRouter registra las rutas públicas.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithCORS(deps.CORSOrigins))
	r.Use(middlewares.WithCorrelationID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithRecover())

	// El Context Service hace su propia verificación del bearer: resuelve
	// la cadena completa por request, sin middleware de auth adelante.
	r.Method(http.MethodGet, "/v1/context",
		withMetrics("/v1/context", http.HandlerFunc(deps.Context.GetContext)))

	// Rutas que requieren solo un bearer verificado (sin tenant resuelto):
	// un usuario sin puntero activo necesita poder listar y switchear.
	auth := middlewares.WithAuth(deps.Verifier)

	r.Method(http.MethodGet, "/v1/tenants", middlewares.Chain(
		withMetrics("/v1/tenants", http.HandlerFunc(deps.Tenants.ListTenants)),
		auth))

	// Auth primero: el rate limit se keyea por el user_id ya verificado.
	r.Method(http.MethodPost, "/v1/tenants/switch", middlewares.Chain(
		withMetrics("/v1/tenants/switch", http.HandlerFunc(deps.Tenants.SwitchTenant)),
		auth,
		middlewares.WithRateLimit(deps.SwitchLimiter, middlewares.UserKey("switch"))))

	r.Method(http.MethodGet, "/v1/permissions", middlewares.Chain(
		withMetrics("/v1/permissions", http.HandlerFunc(deps.Permissions.GetPermissions)),
		auth))

	r.Get("/readyz", deps.Health.Readyz)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}
