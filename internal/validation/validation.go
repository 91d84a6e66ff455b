// Package validation checks free-text formats (email, phone, licence plate)
// and struct-level field rules for incoming create and update requests.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/utils"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	platePattern = regexp.MustCompile(`(?i)^[A-Z]{1,3}\s?\d{1,4}\s?[A-Z]{0,3}$`)
)

// Validator wraps go-playground/validator with the rental-specific tags
// "phone", "plate" and "caryear".
type Validator struct {
	validate *validator.Validate
	clock    utils.Clock
}

func New(clock utils.Clock) *Validator {
	if clock == nil {
		clock = utils.SystemClock()
	}
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), clock: clock}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return IsPlate(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("caryear", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= 1900 && year <= v.clock.Now().Year()+1
	})
	return v
}

// Struct validates s and reports the first failing field as a ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", "%v", err)
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "plate":
		return "must be a valid licence plate, e.g. WA 1234 A"
	case "caryear":
		return "must be between 1900 and next year"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// IsEmail applies the loose address@domain.tld check used by the booking forms.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsPhone accepts 10 or 11 digits, or 11 or 12 when the number carries the 60
// country prefix. Punctuation and spaces are ignored.
func IsPhone(s string) bool {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	n := digits.Len()
	if strings.HasPrefix(digits.String(), "60") {
		return n == 11 || n == 12
	}
	return n == 10 || n == 11
}

// IsPlate accepts plates like "ABC 1234", "WA 1234 A" or "B1234XYZ".
func IsPlate(s string) bool {
	return platePattern.MatchString(strings.TrimSpace(s))
}
