package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "fedstatcli/internal/errors"
)

var (
	// ids are opaque upstream keys; they land in URL paths, so only a safe
	// alphabet is accepted and the first character is never a dot
	indicatorIDRe = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z_.-]{0,63}$`)
	filterTokenRe = regexp.MustCompile(`^[0-9A-Za-z]+_[0-9A-Za-z]+$`)
)

// Validator checks request structs using struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the indicator specific rules
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("indicator", isIndicatorID)
	v.RegisterValidation("filter_token", isFilterToken)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a validation AppError listing every
// rejected field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewAppValidationError(err.Error())
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewAppValidationError(fields[0].Message).WithContext("fields", fields)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "max":
		return fmt.Sprintf("%s must contain at most %s items", field, param)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(param))
	case "indicator":
		return fmt.Sprintf("%s must be an indicator id of letters, digits, '_', '-' or '.'", field)
	case "filter_token":
		return fmt.Sprintf("%s must look like category_value", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isIndicatorID(fl validator.FieldLevel) bool {
	return indicatorIDRe.MatchString(fl.Field().String())
}

func isFilterToken(fl validator.FieldLevel) bool {
	return filterTokenRe.MatchString(fl.Field().String())
}
