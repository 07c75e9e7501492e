// internal/handlers/purchase.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// ContractView adds the formatted price to a stored contract.
type ContractView struct {
	*models.Contract
	DisplayPrice string `json:"display_price"`
	FileName     string `json:"file_name"`
}

func (h *PurchaseHandler) view(contract *models.Contract) ContractView {
	return ContractView{
		Contract:     contract,
		DisplayPrice: h.purchaseService.DisplayPrice(contract),
		FileName:     h.purchaseService.ContractFileName(contract),
	}
}

// POST /purchases
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyerID, ok := actorID(c)
	if !ok {
		return
	}

	req := services.PurchaseRequest{BuyerID: buyerID}
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.purchaseService.Purchase(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	payload := gin.H{
		"message":       i18n.T(lang, i18n.KeyPurchaseCompleted),
		"contract":      h.view(result.Contract),
		"ownership":     result.Ownership,
		"already_owned": result.AlreadyOwned,
	}
	if result.AlreadyOwned {
		utils.SuccessResponse(c, payload)
		return
	}
	utils.CreatedResponse(c, payload)
}

// GET /contracts
func (h *PurchaseHandler) ListContracts(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	contracts, err := h.purchaseService.ListContracts(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "contract")
		return
	}

	views := make([]ContractView, 0, len(contracts))
	for i := range contracts {
		views = append(views, h.view(&contracts[i]))
	}
	utils.SuccessResponse(c, gin.H{"contracts": views})
}

// GET /contracts/:id
func (h *PurchaseHandler) GetContract(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	contractID, ok := uuidParam(c, "id", "contract ID")
	if !ok {
		return
	}

	contract, err := h.purchaseService.GetContract(c.Request.Context(), userID, contractID)
	if err != nil {
		respondServiceError(c, err, "contract")
		return
	}
	utils.SuccessResponse(c, gin.H{"contract": h.view(contract)})
}

// GET /contracts/:id/download
func (h *PurchaseHandler) DownloadContract(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	contractID, ok := uuidParam(c, "id", "contract ID")
	if !ok {
		return
	}

	contract, err := h.purchaseService.GetContract(c.Request.Context(), userID, contractID)
	if err != nil {
		respondServiceError(c, err, "contract")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.purchaseService.ContractFileName(contract)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(contract.Body))
}

// GET /contracts/:id/verify
func (h *PurchaseHandler) VerifyContract(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := actorID(c)
	if !ok {
		return
	}
	contractID, ok := uuidParam(c, "id", "contract ID")
	if !ok {
		return
	}

	valid, err := h.purchaseService.VerifyContract(c.Request.Context(), userID, contractID)
	if err != nil {
		respondServiceError(c, err, "contract")
		return
	}

	message := i18n.T(lang, i18n.KeyContractVerified)
	if !valid {
		message = i18n.T(lang, i18n.KeyContractTampered)
	}
	utils.SuccessResponse(c, gin.H{
		"valid":   valid,
		"message": message,
	})
}

// GET /me/licenses
func (h *PurchaseHandler) ListOwnedBeats(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	ownerships, err := h.purchaseService.ListOwnedBeats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, gin.H{"licenses": ownerships})
}
