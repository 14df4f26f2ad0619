package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/storefront-payments/internal/domain"
	"github.com/shopspring/decimal"
)

// maxAmount caps a single payment at what the processor accepts in minor units.
var maxAmount = decimal.RequireFromString("999999.99")

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match the request body.
	validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validator.RegisterValidation("order_id", validateOrderID)
	validator.RegisterValidation("positive_amount", validatePositiveAmount)

	return validator
}

func validateOrderID(fl validator.FieldLevel) bool {
	return domain.IsValidOrderID(fl.Field().String())
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	amount, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}

	// Cents are the smallest unit the processor understands.
	return amount.IsPositive() && amount.Equal(amount.Truncate(2)) && amount.LessThanOrEqual(maxAmount)
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "order_id":
		return "must look like ORD-YYYYMMDD-HHMMSS-XXXXX"
	case "positive_amount":
		return "must be a positive amount with at most two decimal places"
	default:
		return "is invalid"
	}
}
