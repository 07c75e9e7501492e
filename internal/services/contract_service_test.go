// internal/services/contract_service_test.go
package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/services"
)

func contractTerms(license models.LicenseType, price float64) services.ContractTerms {
	currency := services.NewCurrencyService(services.DefaultCurrencyTable(), "United States")
	return services.ContractTerms{
		Marketplace:   testMarketplace,
		BeatTitle:     "Sunset Drive",
		BuyerName:     "Kai Rivers",
		SellerName:    "Nightshift Audio",
		LicenseType:   license,
		Price:         price,
		Currency:      currency.Default(),
		SignatureText: "K. Rivers",
		SignedAt:      signingTime,
	}
}

func newGenerator() *services.ContractGenerator {
	return services.NewContractGenerator(services.NewCurrencyService(services.DefaultCurrencyTable(), "United States"))
}

func TestContractGenerationIsDeterministic(t *testing.T) {
	g := newGenerator()
	terms := contractTerms(models.LicenseTypeNonExclusive, 29.99)

	assert.Equal(t, g.Generate(terms), g.Generate(terms))
}

func TestNonExclusiveContract(t *testing.T) {
	body := newGenerator().Generate(contractTerms(models.LicenseTypeNonExclusive, 29.99))

	assert.True(t, strings.HasPrefix(body, strings.Repeat("-", 60)+"\nCACSdistro Beat License Agreement\n"))
	assert.Contains(t, body, "This agreement is made on 3/5/2024 between:")
	assert.Contains(t, body, "(1) The Producer: Nightshift Audio")
	assert.Contains(t, body, "(2) The Licensee (Artist): Kai Rivers")
	assert.Contains(t, body, `Beat Title: "Sunset Drive"`)
	assert.Contains(t, body, "License Type: Non-Exclusive")
	assert.Contains(t, body, "License Fee: $29.99")
	assert.Contains(t, body, "3. The Producer may continue to license the beat non-exclusively to other parties.")
	assert.Contains(t, body, `4. The Licensee must credit the Producer as "Produced by Nightshift Audio".`)
	assert.Contains(t, body, "Licensee: Kai Rivers (Signed as: K. Rivers)")
	assert.NotContains(t, body, "Publishing rights")
}

func TestExclusiveContractCarriesPublishingSplit(t *testing.T) {
	body := newGenerator().Generate(contractTerms(models.LicenseTypeExclusive, 299.99))

	assert.Contains(t, body, "License Type: Exclusive")
	assert.Contains(t, body, "License Fee: $299.99")
	assert.Contains(t, body, "2. The beat is withdrawn from sale on the CACSdistro marketplace immediately.")
	assert.Contains(t, body, "4. Publishing rights are split 50% to the Producer and 50% to the Licensee.")
	assert.NotContains(t, body, "non-exclusively")
}

func TestContractFeeUsesDisplayCurrency(t *testing.T) {
	terms := contractTerms(models.LicenseTypeNonExclusive, 29.99)
	terms.Currency = services.NewCurrencyService(services.DefaultCurrencyTable(), "United States").ForCountry("Japan")

	assert.Contains(t, newGenerator().Generate(terms), "License Fee: ¥4,708")
}

func TestContractFileName(t *testing.T) {
	g := newGenerator()

	assert.Equal(t, "CACSdistro_Contract_Sunset_Drive.txt", g.FileName(testMarketplace, "Sunset Drive"))
	assert.Equal(t, "CACSdistro_Contract_Late_Night_Run.txt", g.FileName(testMarketplace, "  Late  Night Run "))
}
