// Package authn expone los endpoints de resolución de contexto y permisos.
package authn

import (
	"net/http"

	"github.com/dropDatabas3/tenantcore/internal/authctx"
	"github.com/dropDatabas3/tenantcore/internal/httpx/dto"
	httperrors "github.com/dropDatabas3/tenantcore/internal/httpx/errors"
	"github.com/dropDatabas3/tenantcore/internal/httpx/helpers"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// ContextController maneja GET /v1/context.
type ContextController struct {
	assembler *authctx.Assembler
}

// NewContextController crea el controller.
func NewContextController(assembler *authctx.Assembler) *ContextController {
	return &ContextController{assembler: assembler}
}

// GetContext resuelve el Context del bearer del request.
// La resolución es stateless y corre completa en cada request: dos llamadas
// seguidas con la misma sesión producen la misma tripleta.
func (c *ContextController) GetContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ContextController.GetContext"))

	bearer := authctx.ExtractBearer(r.Header.Get("Authorization"))
	if bearer == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	resolved, err := c.assembler.Assemble(ctx, bearer)
	if err != nil {
		appErr := httperrors.FromError(err)
		if appErr.Code == httperrors.ErrInternal.Code {
			log.Error("context resolution failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ContextResponseFrom(resolved))
}
