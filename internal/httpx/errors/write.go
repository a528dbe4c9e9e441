package errors

import (
	"encoding/json"
	"net/http"
)

// errorBody es el shape del wire: {"error": {"code", "message"}}.
// Detail solo se incluye para errores de validación, nunca para internos.
type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta HTTP para el error dado.
// Acepta errores genéricos: los pasa por FromError primero.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	payload := errorPayload{
		Code:    appErr.Code,
		Message: appErr.Message,
	}
	// La causa de un INTERNAL_ERROR queda solo en logs.
	if appErr.Code != ErrInternal.Code {
		payload.Detail = appErr.Detail
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorBody{Error: payload})
}
