package repository

import "context"

type credentialKey struct{}

// WithCredential inyecta la credencial original del caller en el contexto.
// Los adapters que soportan row-level security la usan para ejecutar los
// lookups con los mismos permisos que tendría una query directa del cliente:
// el resolver no puede usar privilegios elevados para "ver de más".
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// Credential extrae la credencial del contexto. Retorna cadena vacía si no hay.
func Credential(ctx context.Context) string {
	if v := ctx.Value(credentialKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
