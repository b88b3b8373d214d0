// Package validation checks request bodies with go-playground/validator and
// turns failures into short, field-level messages.
//
// Custom tags:
//   - category: one of models.Categories
//   - username: 3-20 letters, digits or underscores
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"ecofinds/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
)

// Error lists every field that failed validation
type Error struct {
	Fields   []string
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Messages, "; ")
}

// Get returns the shared validator
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names rather than Go ones
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return models.IsCategory(fl.Field().String())
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s. It returns nil or an *Error.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []string{"unknown"}, Messages: []string{err.Error()}}
	}

	out := &Error{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, fe.Field())
		out.Messages = append(out.Messages, translate(fe))
	}
	return out
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
	"category": "%s must be a valid category",
	"username": "%s must be 3-20 characters of letters, numbers and underscores",
}

func translate(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}

	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "min", "gte":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		if isSlice {
			return fmt.Sprintf("%s must have at most %s entries", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
