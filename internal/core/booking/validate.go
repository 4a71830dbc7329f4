package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	phoneSeparators = strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "")
	phoneDigits     = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

// Validator returns the shared validator with the booking rules registered.
// Field names in errors are the form names (nom, email, tel).
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", validPhone)
		validate = v
	})
	return validate
}

// ValidPhone reports whether s looks like a dialable phone number.
func ValidPhone(s string) bool {
	return phoneDigits.MatchString(phoneSeparators.Replace(strings.TrimSpace(s)))
}

func validPhone(fl validator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

// formErrors returns one message per incomplete or invalid field, keyed by
// form field name. An empty map means the form is complete.
func formErrors(in Inputs) map[string]string {
	errs := map[string]string{}

	if err := Validator().Struct(in.Contact); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				errs[fe.Field()] = fieldError(fe)
			}
		}
	}

	for name, value := range in.Required {
		if strings.TrimSpace(value) == "" {
			errs[name] = name + " is required"
		}
	}

	if len(in.Parcels) == 0 {
		errs["poids_1"] = "poids_1 is required"
	}
	for i, p := range in.Parcels {
		if !p.WeightSet {
			name := fmt.Sprintf("poids_%d", i+1)
			errs[name] = name + " is required"
		}
	}

	return errs
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "phone":
		return field + " must be a valid phone number"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// ErrorList flattens field errors into a stable, sorted slice.
func ErrorList(errs map[string]string) []string {
	out := make([]string, 0, len(errs))
	for _, msg := range errs {
		out = append(out, msg)
	}
	sort.Strings(out)
	return out
}
