package analyses

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the request rules on gin's validator engine.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("decimal", validateDecimal)
	})
}

// Validate checks a request struct against its binding rules.
func Validate(req any) error {
	RegisterValidators()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return toValidationError(err)
	}
	return nil
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// validateDecimal accepts a finite decimal within the optional "min:max" bounds.
func validateDecimal(fl validator.FieldLevel) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	lo, hi, _ := strings.Cut(fl.Param(), ":")
	if lo != "" {
		if bound, err := strconv.ParseFloat(lo, 64); err == nil && value < bound {
			return false
		}
	}
	if hi != "" {
		if bound, err := strconv.ParseFloat(hi, 64); err == nil && value > bound {
			return false
		}
	}
	return true
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	return newValidationError(fieldErrs)
}

func newValidationError(fieldErrs validator.ValidationErrors) *ValidationError {
	issues := make([]FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, FieldIssue{Field: fe.Field(), Issue: describeRule(fe)})
	}
	return &ValidationError{Issues: issues}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "too long"
	case "decimal":
		if fe.Param() == "" {
			return "must be a number"
		}
		lo, hi, _ := strings.Cut(fe.Param(), ":")
		switch {
		case hi == "":
			return "must be a number >= " + lo
		case lo == "":
			return "must be a number <= " + hi
		default:
			return "must be a number between " + lo + " and " + hi
		}
	default:
		return fe.Tag()
	}
}
