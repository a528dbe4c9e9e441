// Package tenants expone los endpoints de memberships y switch.
package tenants

import (
	"net/http"

	"github.com/dropDatabas3/tenantcore/internal/httpx/dto"
	httperrors "github.com/dropDatabas3/tenantcore/internal/httpx/errors"
	"github.com/dropDatabas3/tenantcore/internal/httpx/helpers"
	mw "github.com/dropDatabas3/tenantcore/internal/httpx/middlewares"
	svc "github.com/dropDatabas3/tenantcore/internal/httpx/services/tenants"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// TenantsController maneja GET /v1/tenants y POST /v1/tenants/switch.
type TenantsController struct {
	service *svc.Service
}

// NewTenantsController crea el controller.
func NewTenantsController(service *svc.Service) *TenantsController {
	return &TenantsController{service: service}
}

// ListTenants retorna las memberships del caller y cuál está activa.
func (c *TenantsController) ListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantsController.ListTenants"))

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	overview, err := c.service.List(ctx, userID)
	if err != nil {
		appErr := httperrors.FromError(err)
		if appErr.Code == httperrors.ErrInternal.Code {
			log.Error("list tenants failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	resp := dto.TenantsResponse{
		Memberships:    make([]dto.MembershipItem, 0, len(overview.Memberships)),
		ActiveTenantID: overview.ActiveTenantID,
	}
	for _, m := range overview.Memberships {
		resp.Memberships = append(resp.Memberships, dto.MembershipItemFrom(m))
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// SwitchTenant ejecuta el cambio de tenant activo.
// 403 si el caller no es miembro del tenant pedido, 404 si el tenant no
// existe — esa distinción la hace el error mapper sobre los sentinels del
// repositorio.
func (c *TenantsController) SwitchTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantsController.SwitchTenant"))

	userID := mw.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.SwitchRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	active, err := c.service.Switch(ctx, userID, req.TenantID)
	if err != nil {
		appErr := httperrors.FromError(err)
		if appErr.Code == httperrors.ErrInternal.Code {
			log.Error("switch failed", logger.Err(err), logger.TenantID(req.TenantID))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.SwitchResponse{
		TenantID:   active.TenantID,
		TenantName: active.TenantName,
		Role:       active.Role.String(),
	})
}
