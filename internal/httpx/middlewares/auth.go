package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/tenantcore/internal/authctx"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	httperrors "github.com/dropDatabas3/tenantcore/internal/httpx/errors"
	"github.com/dropDatabas3/tenantcore/internal/identity"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
	"github.com/dropDatabas3/tenantcore/internal/util"
)

// WithAuth exige un bearer válido y deja user_id + credencial en el contexto.
// La credencial viaja para que el store aplique row-level security en los
// lookups downstream. No resuelve tenant: eso es del Context Service o del
// endpoint puntual.
func WithAuth(verifier identity.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := authctx.ExtractBearer(r.Header.Get("Authorization"))
			if bearer == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), bearer)
			if err != nil {
				// Nunca distinguimos sub-razones hacia el caller. Para debug
				// interno alcanza el prefijo enmascarado del token.
				logger.From(r.Context()).Debug("bearer rechazado",
					logger.String("token", util.MaskToken(bearer)))
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = repository.WithCredential(ctx, bearer)
			// Re-scope del logger del request: todo log downstream de la
			// verificación sale con el user_id puesto.
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(userID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
