// Package validate checks request payloads and turns failures into
// per-field messages. Struct applies every rule of a payload ("required"
// mode); Sometimes applies rules only to the fields a client actually sent,
// which is what partial updates need.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"blog-api/internal/domain/models"

	"github.com/go-playground/validator"
)

// Fields maps a payload field (its json name) to a human-readable message.
type Fields map[string]string

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("date", isDate)

	return &Validator{v: v}
}

func isDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

// Struct validates every field of s. It returns nil when s is valid.
func (v *Validator) Struct(s any) Fields {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Fields{"": err.Error()}
	}

	fields := make(Fields, len(verrs))
	for _, fe := range verrs {
		if _, ok := fields[fe.Field()]; ok {
			continue
		}
		fields[fe.Field()] = message(fe.Field(), fe)
	}

	return fields
}

// Field is one optional payload value together with the rules it must
// satisfy when present.
type Field struct {
	Name  string
	Value *string
	Tag   string
}

// Sometimes validates only the fields whose Value is not nil.
func (v *Validator) Sometimes(fields ...Field) Fields {
	errs := make(Fields)

	for _, f := range fields {
		if f.Value == nil {
			continue
		}

		err := v.v.Var(*f.Value, f.Tag)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			errs[f.Name] = message(f.Name, verrs[0])
		} else {
			errs[f.Name] = err.Error()
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "date":
		return fmt.Sprintf("The %s field must be a valid date.", field)
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s.", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
