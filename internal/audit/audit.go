// Package audit registra eventos de negocio que queremos poder rastrear
// después: switches de tenant, rechazos de membership. Hoy sale por el
// logger estructurado; el sink puede cambiar sin tocar a los llamadores.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
)

// Eventos conocidos.
const (
	EventTenantSwitch       = "tenant.switch"
	EventTenantSwitchDenied = "tenant.switch.denied"
)

// Log emite un evento de auditoría con el correlation ID del request.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+1)
	all = append(all, zap.String("audit_event", event))
	all = append(all, fields...)
	logger.From(ctx).Info("audit", all...)
}
