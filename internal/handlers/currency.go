// internal/handlers/currency.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

type CurrencyHandler struct {
	currencyService *services.CurrencyService
}

func NewCurrencyHandler(currencyService *services.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// GET /currencies
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"canonical":  services.CanonicalCurrencyCode,
		"default":    h.currencyService.Default(),
		"currencies": h.currencyService.Currencies(),
	})
}

// GET /currencies/format?amount=29.99&country=Japan
func (h *CurrencyHandler) FormatAmount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "amount"), nil)
		return
	}

	currency := displayCurrency(c, h.currencyService)
	utils.SuccessResponse(c, gin.H{
		"amount":    amount,
		"currency":  currency,
		"converted": h.currencyService.Convert(amount, currency),
		"formatted": h.currencyService.Format(amount, currency),
	})
}
