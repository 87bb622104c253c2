package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound        = errors.New("solicitud no encontrada")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrInvalidPassword = errors.New("contraseña inválida")
	ErrDuplicate       = errors.New("registro duplicado")
	ErrNoChanges       = errors.New("no hay cambios para aplicar")
	ErrInvalidAssignee = errors.New("el usuario asignado no es un analista activo")
	ErrInvalidEstado   = errors.New("estado inválido")
	ErrNoDefaultEstado = errors.New("no existe estado default activo")
	ErrInvalidToken    = errors.New("token inválido")
	ErrInactiveAccount = errors.New("cuenta inactiva")
	ErrBadCredentials  = errors.New("credenciales inválidas")
)

// ValidationError marks bad or missing caller input. It is distinct from
// the authorization and conflict sentinels so handlers can map it to a 400
// without ever downgrading an authorization failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is one of the conflict sentinels that
// roll back an otherwise well-formed operation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNoChanges) ||
		errors.Is(err, ErrInvalidAssignee) ||
		errors.Is(err, ErrInvalidEstado) ||
		errors.Is(err, ErrDuplicate)
}
