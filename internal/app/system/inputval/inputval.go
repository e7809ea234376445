// Package inputval validates request payloads with struct tags.
//
// It wraps go-playground/validator and renders failures as human-readable
// per-field messages. The optional `label` tag overrides the field name in
// messages:
//
//	type createInput struct {
//	    Name string `validate:"required,max=200" label:"Name"`
//	}
//	if res := inputval.Validate(in); res.HasErrors() { ... }
package inputval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their label tag (or struct name) instead of Go paths.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

// Result holds validation outcomes for one payload.
type Result struct {
	Errors []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "" when valid.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Validate runs the struct's tag rules and returns messages for every
// failed field.
func Validate(v any) Result {
	err := validate.Struct(v)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []string{"invalid input"}}
	}
	out := Result{Errors: make([]string, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "min":
		if isStringKind(fe) {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if isStringKind(fe) {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func isStringKind(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}
