// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/beatmarket/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("license_type", validateLicenseType)
	validate.RegisterValidation("withdrawal_method", validateWithdrawalMethod)
	validate.RegisterValidation("payment_method", validatePaymentMethod)
	validate.RegisterValidation("notblank", validateNotBlank)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateLicenseType(fl validator.FieldLevel) bool {
	return models.LicenseType(fl.Field().String()).Valid()
}

func validateWithdrawalMethod(fl validator.FieldLevel) bool {
	switch models.WithdrawalMethod(fl.Field().String()) {
	case models.WithdrawalMethodPayPal, models.WithdrawalMethodBankTransfer:
		return true
	}
	return false
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch models.PaymentMethod(fl.Field().String()) {
	case models.PaymentMethodCard, models.PaymentMethodTransfer, models.PaymentMethodBitcoin:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "license_type":
		return "License type must be non_exclusive or exclusive"
	case "withdrawal_method":
		return "Withdrawal method must be paypal or bank_transfer"
	case "payment_method":
		return "Payment method must be card, transfer or bitcoin"
	default:
		return e.Field() + " is invalid"
	}
}
