package util

import "strings"

// MaskToken enmascara una credencial para logs: prefijo corto y largo,
// nunca el token completo. Vacío queda vacío.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:6] + "…(" + lenClass(len(s)) + ")"
}

// MaskUserID deja visible solo el tramo inicial del identificador.
func MaskUserID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return s
	}
	return s[:4] + "…"
}

func lenClass(n int) string {
	switch {
	case n < 64:
		return "short"
	case n < 512:
		return "med"
	default:
		return "long"
	}
}
