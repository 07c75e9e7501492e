// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "internal_error"
	KeyAccessDenied  = "access_denied"
	KeyRateLimited   = "rate_limited"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAdminRequired    = "auth.admin_required"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Beats
	KeyBeatCreated      = "beat.created"
	KeyBeatUpdated      = "beat.updated"
	KeyBeatArchived     = "beat.archived"
	KeyBeatNotFound     = "beat.not_found"
	KeyBeatNotAvailable = "beat.not_available"

	// Contributors
	KeySplitExceedsTotal  = "split.exceeds_total"
	KeyContributorAdded   = "contributor.added"
	KeyContributorRemoved = "contributor.removed"

	// Ratings
	KeyRatingInvalidValue     = "rating.invalid_value"
	KeyRatingRequiresPurchase = "rating.requires_purchase"
	KeyRatingSaved            = "rating.saved"

	// Purchases and contracts
	KeyPurchaseCompleted  = "purchase.completed"
	KeyPurchaseCancelled  = "purchase.cancelled"
	KeyPaymentFailed      = "payment.failed"
	KeyContractNotFound   = "contract.not_found"
	KeyContractVerified   = "contract.verified"
	KeyContractTampered   = "contract.tampered"
	KeyUserNotFound       = "user.not_found"
	KeyWithdrawalNotFound = "withdrawal.not_found"

	// Earnings
	KeyInsufficientBalance  = "earnings.insufficient_balance"
	KeyWithdrawalRequested  = "withdrawal.requested"
	KeyWithdrawalSettled    = "withdrawal.settled"
	KeyWithdrawalTransition = "withdrawal.invalid_transition"

	// Uploads
	KeyUploadFailed = "upload.failed"
)
