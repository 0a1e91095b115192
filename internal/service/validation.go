package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// plainDecimal bounds the digit count so exponent forms like 1e-999999999
// never reach decimal rescaling.
var plainDecimal = regexp.MustCompile(`^-?\d{1,20}(\.\d{1,20})?$`)

func parseDecimal(s string) (decimal.Decimal, bool) {
	if !plainDecimal.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name so errors line up with the request.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, ok := parseDecimal(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		_, err := strconv.ParseInt(fl.Field().String(), 10, 64)
		return err == nil
	})
	_ = v.RegisterValidation("nonneg", func(fl validator.FieldLevel) bool {
		d, ok := parseDecimal(fl.Field().String())
		return ok && !d.IsNegative()
	})
	// numeric(12,2): at most two fractional digits and ten integral ones.
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, ok := parseDecimal(fl.Field().String())
		if !ok {
			return false
		}
		return d.Equal(d.Truncate(2)) && d.Abs().LessThan(decimal.New(1, 10))
	})
	_ = v.RegisterValidation("int32", func(fl validator.FieldLevel) bool {
		_, err := strconv.ParseInt(fl.Field().String(), 10, 32)
		return err == nil
	})

	return v
}

// validateStruct returns one message per failing field, or nil.
func validateStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	case "decimal":
		return fmt.Sprintf("The %s must be a number.", name)
	case "integer", "int32":
		return fmt.Sprintf("The %s must be an integer.", name)
	case "nonneg":
		return fmt.Sprintf("The %s must be at least 0.", name)
	case "money":
		return fmt.Sprintf("The %s must have at most 2 decimal places and be less than 10000000000.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}

// mergeFields adds extra messages without overwriting existing ones.
func mergeFields(dst map[string]string, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}
