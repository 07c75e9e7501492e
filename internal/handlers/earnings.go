// internal/handlers/earnings.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

type EarningsHandler struct {
	earningsService *services.EarningsService
	currencyService *services.CurrencyService
}

func NewEarningsHandler(earningsService *services.EarningsService, currencyService *services.CurrencyService) *EarningsHandler {
	return &EarningsHandler{
		earningsService: earningsService,
		currencyService: currencyService,
	}
}

// GET /earnings
func (h *EarningsHandler) GetSummary(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	summary, err := h.earningsService.Summary(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	currency := displayCurrency(c, h.currencyService)
	utils.SuccessResponse(c, gin.H{
		"summary":          summary,
		"display_currency": currency.Code,
		"display": gin.H{
			"total_revenue":        h.currencyService.Format(summary.TotalRevenue, currency),
			"pending_withdrawals":  h.currencyService.Format(summary.PendingWithdrawals, currency),
			"completed_payouts":    h.currencyService.Format(summary.CompletedPayouts, currency),
			"withdrawable_balance": h.currencyService.Format(summary.WithdrawableAmount, currency),
		},
	})
}

// GET /earnings/breakdown
func (h *EarningsHandler) GetBreakdown(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	lines, err := h.earningsService.EarningsBreakdown(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}
	utils.SuccessResponse(c, gin.H{"lines": lines})
}

// GET /earnings/beats/:id
func (h *EarningsHandler) GetBeatEarnings(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	earnings, err := h.earningsService.BeatEarningsFor(c.Request.Context(), userID, beatID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, earnings)
}

// GET /earnings/sales
func (h *EarningsHandler) GetSales(c *gin.Context) {
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	months, err := h.earningsService.SalesByMonth(c.Request.Context(), producerID)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}
	utils.SuccessResponse(c, gin.H{"months": months})
}

// GET /producers/:id/stats
func (h *EarningsHandler) GetProducerStats(c *gin.Context) {
	producerID, ok := uuidParam(c, "id", "producer ID")
	if !ok {
		return
	}

	stats, err := h.earningsService.ProducerStats(c.Request.Context(), producerID)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	currency := displayCurrency(c, h.currencyService)
	utils.SuccessResponse(c, gin.H{
		"stats":               stats,
		"display_currency":    currency.Code,
		"display_sales_value": h.currencyService.Format(stats.SalesValue, currency),
	})
}

// GET /earnings/balance
func (h *EarningsHandler) GetBalance(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	balance, err := h.earningsService.WithdrawableBalance(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	currency := displayCurrency(c, h.currencyService)
	utils.SuccessResponse(c, gin.H{
		"withdrawable_balance": balance,
		"currency":             services.CanonicalCurrencyCode,
		"display_currency":     currency.Code,
		"display_balance":      h.currencyService.Format(balance, currency),
	})
}

type withdrawalRequest struct {
	Amount      float64                 `json:"amount"`
	Currency    string                  `json:"currency"`
	Method      models.WithdrawalMethod `json:"method"`
	Destination string                  `json:"destination"`
}

// POST /withdrawals
func (h *EarningsHandler) RequestWithdrawal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Amounts may be entered in the display currency; the ledger is canonical.
	amount := req.Amount
	if req.Currency != "" {
		amount = h.currencyService.ToCanonical(req.Amount, h.currencyService.ForCode(req.Currency))
	}

	withdrawal, err := h.earningsService.RequestWithdrawal(c.Request.Context(), services.WithdrawalInput{
		ProducerID:  producerID,
		Amount:      amount,
		Method:      req.Method,
		Destination: req.Destination,
	})
	if err != nil {
		respondServiceError(c, err, "withdrawal")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyWithdrawalRequested),
		"withdrawal": withdrawal,
	})
}

// GET /withdrawals
func (h *EarningsHandler) ListWithdrawals(c *gin.Context) {
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	withdrawals, err := h.earningsService.ListWithdrawals(c.Request.Context(), producerID)
	if err != nil {
		respondServiceError(c, err, "withdrawal")
		return
	}
	utils.SuccessResponse(c, gin.H{"withdrawals": withdrawals})
}

type settleRequest struct {
	Status models.WithdrawalStatus `json:"status"`
	Reason string                  `json:"reason"`
}

// PUT /admin/withdrawals/:id
func (h *EarningsHandler) SettleWithdrawal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := actorID(c)
	if !ok {
		return
	}
	withdrawalID, ok := uuidParam(c, "id", "withdrawal ID")
	if !ok {
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	withdrawal, err := h.earningsService.SettleWithdrawal(c.Request.Context(), adminID, withdrawalID, req.Status, req.Reason)
	if err != nil {
		respondServiceError(c, err, "withdrawal")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyWithdrawalSettled),
		"withdrawal": withdrawal,
	})
}
