// Package handlers holds the fiber HTTP handlers. Request bodies are decoded
// into request structs and validated before they reach a service, and
// responses are built from explicit response structs.
package handlers

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(nullDecimalValue, decimal.NullDecimal{})
	return v
}

// nullDecimalValue lets numeric tags such as gt apply to optional decimals.
// An absent value fails required.
func nullDecimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.NullDecimal)
	if !ok || !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

// parseBody decodes the JSON body into req and validates it.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError reports the first failing field by its JSON name.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return apperr.Validation("invalid request body")
	}

	fe := fields[0]
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperr.Validation(name + " is required")
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return apperr.Validation(name + " must contain at least " + fe.Param() + " item")
		case reflect.String:
			return apperr.Validation(name + " must be at least " + fe.Param() + " characters")
		}
		return apperr.Validation(name + " must be at least " + fe.Param())
	case "gt":
		return apperr.Validation(name + " must be greater than " + fe.Param())
	case "email":
		return apperr.Validation(name + " must be a valid email")
	case "oneof":
		return apperr.Validation(name + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return apperr.Validation(name + " is invalid")
	}
}

func fmtInt(n int64) string { return strconv.FormatInt(n, 10) }

func parseID(c *fiber.Ctx, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(entity + " not found")
	}
	return id, nil
}
