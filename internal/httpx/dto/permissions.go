package dto

// PermissionsResponse es la respuesta de GET /v1/permissions.
// Advisory-only: source="unknown" significa "no asumas nada, mostrá estado
// de permisos desconocidos".
type PermissionsResponse struct {
	Role   string `json:"role"`
	Source string `json:"source"`
}
