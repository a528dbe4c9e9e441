package middlewares

import (
	"context"
)

type ctxKey string

const (
	// ctxCorrelationIDKey guarda el correlation id del request
	ctxCorrelationIDKey ctxKey = "correlation_id"
	// ctxUserIDKey guarda el user ID verificado
	ctxUserIDKey ctxKey = "user_id"
)

// setCorrelationID inyecta el correlation id en el contexto (interno).
func setCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxCorrelationIDKey, id)
}

// WithUserID inyecta el user ID en el contexto.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

// GetCorrelationID obtiene el correlation id del contexto.
// Retorna cadena vacía si no hay.
func GetCorrelationID(ctx context.Context) string {
	return getString(ctx, ctxCorrelationIDKey)
}

// GetUserID obtiene el user ID del contexto.
func GetUserID(ctx context.Context) string {
	return getString(ctx, ctxUserIDKey)
}

func getString(ctx context.Context, key ctxKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
