// Package errors define la taxonomía cerrada de errores HTTP del core y el
// mapeo determinístico desde errores de capas internas (store, identity,
// resolución) hacia exactamente uno de los cinco códigos públicos.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/tenantcore/internal/authctx"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/identity"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, nunca se expone al cliente
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail agrega detalle adicional. Devuelve una COPIA para no mutar las
// variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// TAXONOMÍA CERRADA — exactamente cinco códigos, status fijo por código
// =================================================================================

var (
	// ErrUnauthorized: credencial ausente/inválida/expirada, o puntero de
	// tenant no resolvible. Siempre fail closed.
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	// ErrForbidden: autenticado pero sin derecho al tenant/recurso pedido.
	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "No tiene permisos para realizar esta acción.",
		HTTPStatus: http.StatusForbidden,
	}

	// ErrValidation: request malformado (body, schema).
	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "La solicitud contiene datos inválidos.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrNotFound: recurso genuinamente ausente.
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrInternal: todo lo no reconocido. El mensaje interno jamás se
	// propaga al caller.
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Ocurrió un error interno en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// FromError mapea cualquier error observado durante la resolución a uno de
// los cinco errores tipados. Es una función pura: mismo error de entrada,
// mismo AppError de salida.
//
// Los errores del store se pattern-matchean acá ANTES de poder propagarse:
// el caller nunca ve shapes internos del backend.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, authctx.ErrUnauthorized),
		stderrors.Is(err, identity.ErrInvalidToken),
		stderrors.Is(err, repository.ErrNoActiveTenant):
		return ErrUnauthorized.WithCause(err)

	case stderrors.Is(err, repository.ErrAccessDenied):
		return ErrForbidden.WithCause(err)

	case stderrors.Is(err, repository.ErrInvalidInput):
		return ErrValidation.WithCause(err)

	case stderrors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)

	default:
		return ErrInternal.WithCause(err)
	}
}
