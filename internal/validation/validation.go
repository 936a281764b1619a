// Package validation holds the field rules applied to user input before any
// mutation reaches storage.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailShapePattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	controlChars      = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// SeasonNameForbidden lists the characters a season name may not contain.
const SeasonNameForbidden = `<>"'`

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailshape", func(fl validator.FieldLevel) bool {
		return emailShapePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "seasonname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), SeasonNameForbidden)
	})
	mustRegister(v, "weburl", func(fl validator.FieldLevel) bool {
		return ValidURL(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Registration is the field set checked when a new account is created.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,min=2"`
}

// Password wraps a lone password for rules shared with Registration.
type Password struct {
	Password string `json:"password" validate:"required,min=6"`
}

// Season is the field set checked when a season is created.
type Season struct {
	Name string `json:"name" validate:"required,min=3,max=100,seasonname"`
}

// Job is the field set checked when a job application is added or edited.
type Job struct {
	Role           string `json:"role" validate:"required,min=2,max=200"`
	CompanyName    string `json:"company_name" validate:"required,min=2,max=200"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,weburl"`
}

// Struct validates any tagged struct and returns field errors keyed by the
// json name of the field. A nil map means the value passed.
func Struct(value any) map[string]string {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "username":
		return "may only contain letters, numbers, and underscores"
	case "emailshape":
		return "must be a valid email address"
	case "seasonname":
		return `must not contain any of < > " '`
	case "weburl":
		return "must be a valid http or https URL"
	default:
		return "is invalid"
	}
}

// ValidURL reports whether raw is an absolute http(s) URL with a host.
func ValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Sanitize strips control characters and collapses runs of whitespace.
func Sanitize(value string) string {
	if value == "" {
		return ""
	}
	cleaned := controlChars.ReplaceAllString(value, " ")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// DefaultTruncateWidth is the column width used by list output.
const DefaultTruncateWidth = 30

// Truncate shortens text to max runes, ending in "..." when cut.
func Truncate(text string, max int) string {
	const suffix = "..."
	if max <= 0 {
		max = DefaultTruncateWidth
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= len(suffix) {
		return string(runes[:max])
	}
	return string(runes[:max-len(suffix)]) + suffix
}

// SortedFields returns the keys of a field error map in a stable order.
func SortedFields(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
