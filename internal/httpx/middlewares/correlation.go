package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CorrelationHeader es el header de tracing cross-service.
const CorrelationHeader = "X-Correlation-ID"

// WithCorrelationID propaga o genera un correlation id por request.
// Si el cliente manda X-Correlation-ID, se ecoa tal cual; si no, se genera
// uno nuevo. Toda respuesta (éxito o error) sale con el header seteado.
func WithCorrelationID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := strings.TrimSpace(r.Header.Get(CorrelationHeader))
			if cid == "" {
				cid = uuid.NewString()
			}

			// Exponer en response header
			w.Header().Set(CorrelationHeader, cid)

			// Inyectar en contexto para logs/handlers
			ctx := setCorrelationID(r.Context(), cid)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
