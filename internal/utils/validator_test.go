// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/beatmarket/internal/models"
)

type licenseForm struct {
	License   models.LicenseType      `validate:"required,license_type"`
	Payment   models.PaymentMethod    `validate:"omitempty,payment_method"`
	Payout    models.WithdrawalMethod `validate:"omitempty,withdrawal_method"`
	Signature string                  `validate:"required,notblank"`
}

func TestCustomValidations(t *testing.T) {
	valid := licenseForm{
		License:   models.LicenseTypeExclusive,
		Payment:   models.PaymentMethodBitcoin,
		Payout:    models.WithdrawalMethodBankTransfer,
		Signature: "Kai Rivers",
	}
	assert.NoError(t, ValidateStruct(&valid))

	invalid := licenseForm{License: "lease", Payment: "cash", Payout: "venmo", Signature: "   "}
	err := ValidateStruct(&invalid)
	require.Error(t, err)

	details := GetValidationErrors(err)
	tags := make(map[string]string, len(details))
	for _, d := range details {
		tags[d.Field] = d.Tag
	}
	assert.Equal(t, map[string]string{
		"license":   "license_type",
		"payment":   "payment_method",
		"payout":    "withdrawal_method",
		"signature": "notblank",
	}, tags)
}
