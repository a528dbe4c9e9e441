// Package health expone el readiness check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantcore/internal/httpx/helpers"
)

// Pinger es lo mínimo que el check necesita del store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController maneja GET /readyz.
type HealthController struct {
	store Pinger
}

// NewHealthController crea el controller.
func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

// Readyz responde 200 si el store contesta el ping, 503 si no.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
