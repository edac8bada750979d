package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trueque/marketplace/internal/core/service"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
// Failed validations surface as service.FieldErrors so the handlers can
// return the same message-list shape the session store produces.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validator.New()}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return &service.FieldErrors{Messages: msgs}
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a user-facing message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("el campo %s es obligatorio", field)
	case "email":
		return fmt.Sprintf("el campo %s debe ser un correo válido", field)
	case "min":
		return fmt.Sprintf("el campo %s debe tener al menos %s caracteres", field, fe.Param())
	case "max":
		return fmt.Sprintf("el campo %s no puede superar %s caracteres", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("el campo %s debe ser uno de: %s", field, fe.Param())
	default:
		return fmt.Sprintf("el campo %s no es válido (%s)", field, fe.Tag())
	}
}

// validationMessages unpacks a Validate error into the message list the
// API answers with.
func validationMessages(err error) []string {
	var fe *service.FieldErrors
	if errors.As(err, &fe) {
		return fe.Messages
	}
	return []string{err.Error()}
}
