package authn

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantcore/internal/httpx/dto"
	httperrors "github.com/dropDatabas3/tenantcore/internal/httpx/errors"
	"github.com/dropDatabas3/tenantcore/internal/httpx/helpers"
	mw "github.com/dropDatabas3/tenantcore/internal/httpx/middlewares"
	"github.com/dropDatabas3/tenantcore/internal/permissions"
)

// PermissionsController maneja GET /v1/permissions.
// Advisory-only: la respuesta sirve para gating de UI, jamás para autorizar
// una operación — eso lo hace el Context Service.
type PermissionsController struct {
	evaluator *permissions.Evaluator
}

// NewPermissionsController crea el controller.
func NewPermissionsController(evaluator *permissions.Evaluator) *PermissionsController {
	return &PermissionsController{evaluator: evaluator}
}

// GetPermissions resuelve el rol advisory para el usuario autenticado.
// El tenant sale del query param ?tenant_id= (la UI pregunta por el tenant
// que está mostrando, que puede no ser todavía el activo).
func (c *PermissionsController) GetPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail("tenant_id requerido"))
		return
	}

	d := c.evaluator.Evaluate(ctx, userID, tenantID)
	helpers.WriteJSON(w, http.StatusOK, dto.PermissionsResponse{
		Role:   d.Role.String(),
		Source: string(d.Source),
	})
}
