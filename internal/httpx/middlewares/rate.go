package middlewares

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
	"github.com/dropDatabas3/tenantcore/internal/rate"
	"github.com/dropDatabas3/tenantcore/internal/util"
)

// WithRateLimit aplica un limiter fixed-window keyed por el valor de keyFn.
// Si el limiter falla (ej. redis caído) el request pasa: preferimos perder
// el límite antes que tirar tráfico legítimo.
func WithRateLimit(limiter rate.Limiter, keyFn func(r *http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			if !res.Allowed {
				logger.From(r.Context()).Warn("rate limit excedido",
					logger.String("user", util.MaskUserID(GetUserID(r.Context()))),
					logger.String("retry_after", res.RetryAfter.String()),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    "RATE_LIMIT_EXCEEDED",
						"message": "Demasiadas solicitudes. Intente más tarde.",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserKey genera la key de rate limiting por usuario autenticado.
func UserKey(prefix string) func(r *http.Request) string {
	return func(r *http.Request) string {
		uid := GetUserID(r.Context())
		if uid == "" {
			return ""
		}
		return prefix + ":" + uid
	}
}
