// Package validation checks decoded request bodies and turns field errors
// into the messages the API returns.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/carrental-api/internal/models"
)

// Errors is the list of human-readable validation failures.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

var (
	validate  = newValidator()
	alphaOnly = regexp.MustCompile(`^[a-zA-Z\s]+$`)

	// now is swapped in tests to pin the model-year ceiling.
	now = time.Now
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("validate")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaOnly.MatchString(fl.Field().String())
	})
	must("notblank", validators.NotBlank)
	must("hasupper", hasRune(func(r rune) bool { return r >= 'A' && r <= 'Z' }))
	must("haslower", hasRune(func(r rune) bool { return r >= 'a' && r <= 'z' }))
	must("hasdigit", hasRune(func(r rune) bool { return r >= '0' && r <= '9' }))
	must("hasspecial", hasRune(func(r rune) bool {
		// Anything outside [A-Za-z0-9] counts, underscore included.
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	}))
	must("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	must("caryear", func(fl validator.FieldLevel) bool {
		return int(fl.Field().Int()) <= models.MaxCarYear(now())
	})
	must("carfeatures", func(fl validator.FieldLevel) bool {
		features, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		for _, f := range features {
			if !models.IsValidCarFeature(f) {
				return false
			}
		}
		return true
	})
	return v
}

func hasRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if pred(r) {
				return true
			}
		}
		return false
	}
}

// Struct validates v and returns Errors when any rule fails.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}
