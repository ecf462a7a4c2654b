package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("session: invalid input")

var validate = validator.New()

// Credentials are what login asks for.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Validate checks the fields before anything is sent.
func (c Credentials) Validate() error {
	return validateStruct(c)
}

// Registration is what signup asks for.
type Registration struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Nickname string `validate:"required"`
}

// Validate checks the fields before anything is sent.
func (r Registration) Validate() error {
	return validateStruct(r)
}

// FieldError is one rejected field. Field is lower case ("email"), Tag the
// failed rule ("required", "email", "min") and Param its argument.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e FieldError) String() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field, e.Param)
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// ValidationError lists the fields that failed. It matches ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, e := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: strings.ToLower(e.Field()),
			Tag:   e.Tag(),
			Param: e.Param(),
		})
	}
	return out
}
