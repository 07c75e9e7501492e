// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

// respondServiceError maps a service error onto the response envelope. resource
// names the entity for not-found messages.
func respondServiceError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)

	var fieldErr *services.ValidationError
	switch {
	case errors.As(err, &fieldErr):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", i18n.T(lang, i18n.KeyValidationInvalid, fieldErr.Field),
			[]utils.ValidationError{{Field: fieldErr.Field, Tag: "invalid", Message: fieldErr.Message}})
	case errors.Is(err, services.ErrInvalidRatingValue):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_RATING_VALUE", i18n.T(lang, i18n.KeyRatingInvalidValue), nil)
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
	case errors.Is(err, services.ErrSplitExceedsTotal):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "SPLIT_EXCEEDS_TOTAL", i18n.T(lang, i18n.KeySplitExceedsTotal), nil)
	case errors.Is(err, services.ErrInsufficientBalance):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", i18n.T(lang, i18n.KeyInsufficientBalance), nil)
	case errors.Is(err, services.ErrBeatNotAvailable):
		utils.ErrorResponse(c, http.StatusConflict, "BEAT_NOT_AVAILABLE", i18n.T(lang, i18n.KeyBeatNotAvailable), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", i18n.T(lang, i18n.KeyWithdrawalTransition), nil)
	case errors.Is(err, services.ErrPaymentFailed):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_FAILED", i18n.T(lang, i18n.KeyPaymentFailed), err.Error())
	case errors.Is(err, services.ErrRatingRequiresPurchase):
		utils.ErrorResponse(c, http.StatusForbidden, "RATING_REQUIRES_PURCHASE", i18n.T(lang, i18n.KeyRatingRequiresPurchase), nil)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusRequestTimeout, "REQUEST_CANCELLED", i18n.T(lang, i18n.KeyPurchaseCancelled), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
	}
}

// actorID returns the authenticated user, writing a 401 when there is none.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, label), nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindAndValidate decodes the JSON body and runs struct validation.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}
