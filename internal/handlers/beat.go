// internal/handlers/beat.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

type BeatHandler struct {
	beatService     *services.BeatService
	splitService    *services.SplitService
	ratingService   *services.RatingService
	currencyService *services.CurrencyService
}

func NewBeatHandler(
	beatService *services.BeatService,
	splitService *services.SplitService,
	ratingService *services.RatingService,
	currencyService *services.CurrencyService,
) *BeatHandler {
	return &BeatHandler{
		beatService:     beatService,
		splitService:    splitService,
		ratingService:   ratingService,
		currencyService: currencyService,
	}
}

// BeatView is a beat with its prices rendered in the caller's display currency.
type BeatView struct {
	*models.Beat
	RemainingProducerShare float64           `json:"remaining_producer_share"`
	DisplayPrices          map[string]string `json:"display_prices"`
	DisplayCurrency        string            `json:"display_currency"`
}

func (h *BeatHandler) view(c *gin.Context, beat *models.Beat) BeatView {
	currency := displayCurrency(c, h.currencyService)
	return BeatView{
		Beat:                   beat,
		RemainingProducerShare: services.RemainingShare(beat.Contributors),
		DisplayCurrency:        currency.Code,
		DisplayPrices: map[string]string{
			string(models.LicenseTypeNonExclusive): h.currencyService.Format(beat.PriceFor(models.LicenseTypeNonExclusive), currency),
			string(models.LicenseTypeExclusive):    h.currencyService.Format(beat.PriceFor(models.LicenseTypeExclusive), currency),
		},
	}
}

// displayCurrency picks the currency from ?currency=CODE, then ?country=, then the default.
func displayCurrency(c *gin.Context, currencies *services.CurrencyService) services.Currency {
	if code := c.Query("currency"); code != "" {
		return currencies.ForCode(code)
	}
	if country := c.Query("country"); country != "" {
		return currencies.ForCountry(country)
	}
	return currencies.Default()
}

// GET /beats
func (h *BeatHandler) SearchBeats(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.BeatFilter{
		Search:     params.Search,
		Genres:     splitList(c.Query("genre")),
		Moods:      splitList(c.Query("mood")),
		Pagination: params,
	}
	if minBPM, err := strconv.Atoi(c.Query("min_bpm")); err == nil {
		filter.MinBPM = minBPM
	}
	if maxBPM, err := strconv.Atoi(c.Query("max_bpm")); err == nil {
		filter.MaxBPM = maxBPM
	}
	if producerIDStr := c.Query("producer_id"); producerIDStr != "" {
		if producerID, err := uuid.Parse(producerIDStr); err == nil {
			filter.ProducerID = &producerID
		}
	}

	beats, total, err := h.beatService.SearchBeats(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	views := make([]BeatView, 0, len(beats))
	for i := range beats {
		views = append(views, h.view(c, &beats[i]))
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(views, total, params))
}

// GET /beats/:id
func (h *BeatHandler) GetBeat(c *gin.Context) {
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	beat, err := h.beatService.GetBeat(c.Request.Context(), beatID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, gin.H{"beat": h.view(c, beat)})
}

// POST /beats
func (h *BeatHandler) CreateBeat(c *gin.Context) {
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	var req services.CreateBeatRequest
	if !bindAndValidate(c, &req) {
		return
	}

	beat, err := h.beatService.CreateBeat(c.Request.Context(), producerID, req)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBeatCreated),
		"beat":    h.view(c, beat),
	})
}

// POST /beats/assets
func (h *BeatHandler) UploadAsset(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	kind := services.AssetKind(c.DefaultPostForm("kind", string(services.AssetKindAudio)))
	if kind != services.AssetKindAudio && kind != services.AssetKindCover {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "kind"), nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "file"), nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadFailed), err.Error())
		return
	}
	defer file.Close()

	result, err := h.beatService.UploadAsset(c.Request.Context(), producerID, services.AssetUpload{
		Kind:     kind,
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Body:     file,
	})
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	utils.CreatedResponse(c, gin.H{"asset": result})
}

// PUT /beats/:id/pricing
func (h *BeatHandler) UpdatePricing(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	var req services.PricingInput
	if !bindAndValidate(c, &req) {
		return
	}

	beat, err := h.beatService.UpdatePricing(c.Request.Context(), userID, beatID, req)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBeatUpdated),
		"beat":    h.view(c, beat),
	})
}

// DELETE /beats/:id
func (h *BeatHandler) ArchiveBeat(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	beat, err := h.beatService.ArchiveBeat(c.Request.Context(), userID, beatID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBeatArchived),
		"beat":    beat,
	})
}

// GET /me/beats
func (h *BeatHandler) ListMyBeats(c *gin.Context) {
	producerID, ok := actorID(c)
	if !ok {
		return
	}

	beats, err := h.beatService.ListProducerBeats(c.Request.Context(), producerID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	views := make([]BeatView, 0, len(beats))
	for i := range beats {
		views = append(views, h.view(c, &beats[i]))
	}
	utils.SuccessResponse(c, gin.H{"beats": views})
}

// POST /beats/:id/contributors
func (h *BeatHandler) AddContributor(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	var req services.ContributorInput
	if !bindAndValidate(c, &req) {
		return
	}

	beat, err := h.splitService.AddContributor(c.Request.Context(), userID, beatID, req)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.CreatedResponse(c, gin.H{
		"message":                  i18n.T(lang, i18n.KeyContributorAdded),
		"contributors":             beat.Contributors,
		"remaining_producer_share": services.RemainingShare(beat.Contributors),
	})
}

// DELETE /beats/:id/contributors/:contributor_id
func (h *BeatHandler) RemoveContributor(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}
	contributorID, ok := uuidParam(c, "contributor_id", "contributor ID")
	if !ok {
		return
	}

	beat, err := h.splitService.RemoveContributor(c.Request.Context(), userID, beatID, contributorID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{
		"message":                  i18n.T(lang, i18n.KeyContributorRemoved),
		"contributors":             beat.Contributors,
		"remaining_producer_share": services.RemainingShare(beat.Contributors),
	})
}

// GET /beats/:id/contributors/remaining
func (h *BeatHandler) RemainingShare(c *gin.Context) {
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	remaining, err := h.splitService.RemainingProducerShare(c.Request.Context(), beatID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, gin.H{"remaining_producer_share": remaining})
}

type rateRequest struct {
	Value int `json:"value"`
}

// POST /beats/:id/rating
func (h *BeatHandler) Rate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	beat, err := h.ratingService.Rate(c.Request.Context(), userID, beatID, req.Value)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyRatingSaved),
		"rating":        beat.Rating,
		"ratings_count": beat.RatingsCount,
		"version":       beat.Version,
	})
}

// POST /beats/:id/favorite
func (h *BeatHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	beatID, ok := uuidParam(c, "id", "beat ID")
	if !ok {
		return
	}

	favorited, err := h.beatService.ToggleFavorite(c.Request.Context(), userID, beatID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, gin.H{"favorited": favorited})
}

// GET /me/favorites
func (h *BeatHandler) ListFavorites(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	favorites, err := h.beatService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "beat")
		return
	}
	utils.SuccessResponse(c, gin.H{"favorites": favorites})
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
