// internal/services/purchase_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/metrics"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/utils"
)

// ExclusivePublishingSharePercent is the licensee's share of publishing on an exclusive sale.
const ExclusivePublishingSharePercent = 50.0

type PurchaseRequest struct {
	BuyerID        uuid.UUID            `json:"-" validate:"required"`
	BeatID         uuid.UUID            `json:"beat_id" validate:"required"`
	LicenseType    models.LicenseType   `json:"license_type" validate:"required,license_type"`
	SignatureText  string               `json:"signature_text" validate:"required,notblank,max=255"`
	PaymentMethod  models.PaymentMethod `json:"payment_method" validate:"omitempty,payment_method"`
	PaymentDetails map[string]string    `json:"payment_details,omitempty"`
}

type PurchaseResult struct {
	Contract     *models.Contract  `json:"contract"`
	Ownership    *models.Ownership `json:"ownership"`
	AlreadyOwned bool              `json:"already_owned"`
}

type PurchaseService struct {
	store       repository.Store
	locks       *repository.KeyedLocker
	gateway     PaymentGateway
	generator   *ContractGenerator
	currency    *CurrencyService
	notifier    Notifier
	metrics     *metrics.Metrics
	marketplace string
	now         func() time.Time
}

func NewPurchaseService(
	store repository.Store,
	locks *repository.KeyedLocker,
	gateway PaymentGateway,
	generator *ContractGenerator,
	currency *CurrencyService,
	notifier Notifier,
	m *metrics.Metrics,
	marketplace string,
) *PurchaseService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &PurchaseService{
		store:       store,
		locks:       locks,
		gateway:     gateway,
		generator:   generator,
		currency:    currency,
		notifier:    notifier,
		metrics:     m,
		marketplace: marketplace,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the signing clock.
func (s *PurchaseService) SetClock(now func() time.Time) {
	s.now = now
}

// Purchase licenses a beat to the buyer. Nothing is written unless the payment
// collaborator reports success; once it has, the commit ignores cancellation.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	req.SignatureText = strings.TrimSpace(req.SignatureText)

	unlock, err := s.locks.Lock(ctx, repository.BeatKey(req.BeatID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	beat, err := s.store.GetBeat(ctx, req.BeatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("beat")
		}
		return nil, err
	}
	if beat.ProducerID == req.BuyerID {
		return nil, newValidationError("beat_id", "producers cannot license their own beats")
	}
	if !beat.Available() {
		s.metrics.ObservePurchase(string(req.LicenseType), "unavailable", 0)
		return nil, ErrBeatNotAvailable
	}

	buyer, err := s.store.GetUser(ctx, req.BuyerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("buyer")
		}
		return nil, err
	}

	existing, err := s.store.GetOwnership(ctx, req.BuyerID, req.BeatID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if existing != nil && req.LicenseType == models.LicenseTypeNonExclusive {
		contract, err := s.store.GetContract(ctx, existing.ContractID)
		if err != nil {
			return nil, err
		}
		return &PurchaseResult{Contract: contract, Ownership: existing, AlreadyOwned: true}, nil
	}

	price := beat.PriceFor(req.LicenseType)

	charge, err := s.charge(ctx, beat, buyer, req, price)
	if err != nil {
		return nil, err
	}

	// Money has moved: the outcome is final from here on.
	commitCtx := context.WithoutCancel(ctx)
	signedAt := s.now()
	display := s.currency.ForCountry(buyer.Country)

	contract := &models.Contract{
		Marketplace:      s.marketplace,
		BeatID:           beat.ID,
		BeatTitle:        beat.Title,
		BuyerID:          buyer.ID,
		BuyerName:        buyer.Name,
		SellerID:         beat.ProducerID,
		SellerName:       beat.Producer.Name,
		LicenseType:      req.LicenseType,
		PriceAtPurchase:  price,
		CurrencyCode:     display.Code,
		CurrencySymbol:   display.Symbol,
		CurrencyRate:     display.RateToCanonical,
		ZeroDecimal:      display.ZeroDecimal,
		SignedAt:         signedAt,
		SignatureText:    req.SignatureText,
		PaymentMethod:    charge.method,
		PaymentReference: charge.reference,
	}
	contract.Body = s.generator.Generate(s.termsFor(contract))
	contract.Digest = utils.HashString(contract.Body)

	ownership := existing
	if ownership == nil {
		ownership = &models.Ownership{BuyerID: buyer.ID, BeatID: beat.ID}
	}

	err = s.store.Transaction(commitCtx, func(tx repository.Store) error {
		if err := tx.CreateContract(commitCtx, contract); err != nil {
			return err
		}

		ownership.LicenseType = req.LicenseType
		ownership.ContractID = contract.ID
		if req.LicenseType == models.LicenseTypeExclusive {
			ownership.PublishingSharePercent = ExclusivePublishingSharePercent
		}
		if err := tx.SaveOwnership(commitCtx, ownership); err != nil {
			return err
		}

		if req.LicenseType == models.LicenseTypeExclusive {
			beat.Status = models.BeatStatusDelisted
			beat.Version++
			return tx.UpdateBeat(commitCtx, beat)
		}
		return nil
	})
	if err != nil {
		// The charge succeeded but nothing was recorded; the reference is needed to reconcile.
		logrus.WithError(err).WithFields(logrus.Fields{
			"beat_id":           beat.ID,
			"buyer_id":          buyer.ID,
			"payment_reference": charge.reference,
			"amount":            price,
		}).Error("Failed to record purchase after successful payment")
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	s.metrics.ObservePurchase(string(req.LicenseType), "completed", price)
	logrus.WithFields(logrus.Fields{
		"contract_id":  contract.ID,
		"beat_id":      beat.ID,
		"buyer_id":     buyer.ID,
		"license_type": req.LicenseType,
		"price":        price,
	}).Info("License purchased")

	// Subscribers may call back into the core for this beat.
	unlock()
	s.notifier.Publish(Event{Type: EventContractCreated, EntityID: contract.ID, ActorID: buyer.ID, BeatID: beat.ID, Version: beat.Version})
	if req.LicenseType == models.LicenseTypeExclusive {
		s.notifier.Publish(Event{Type: EventBeatDelisted, EntityID: beat.ID, ActorID: buyer.ID, BeatID: beat.ID, Version: beat.Version})
	}

	return &PurchaseResult{Contract: contract, Ownership: ownership}, nil
}

type chargeOutcome struct {
	method    models.PaymentMethod
	reference string
}

func (s *PurchaseService) charge(ctx context.Context, beat *models.Beat, buyer *models.User, req PurchaseRequest, price float64) (*chargeOutcome, error) {
	if err := ctx.Err(); err != nil {
		s.metrics.ObservePurchase(string(req.LicenseType), "cancelled", 0)
		return nil, err
	}
	if price <= 0 {
		return &chargeOutcome{method: models.PaymentMethodFree}, nil
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCard
	}

	started := time.Now()
	result, err := s.gateway.Charge(ctx, ChargeRequest{
		Amount:      price,
		Currency:    CanonicalCurrencyCode,
		Method:      method,
		Details:     req.PaymentDetails,
		Description: fmt.Sprintf("%s license: %s", req.LicenseType.Label(), beat.Title),
		Metadata: map[string]string{
			"beat_id":      beat.ID.String(),
			"buyer_id":     buyer.ID.String(),
			"license_type": string(req.LicenseType),
		},
	})

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		s.metrics.ObservePayment(string(method), "cancelled", time.Since(started))
		s.metrics.ObservePurchase(string(req.LicenseType), "cancelled", 0)
		return nil, err
	case err != nil:
		s.metrics.ObservePayment(string(method), "error", time.Since(started))
		s.metrics.ObservePurchase(string(req.LicenseType), "payment_failed", 0)
		logrus.WithError(err).WithField("beat_id", beat.ID).Warn("Payment collaborator error")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	case result == nil || !result.Success:
		reason := "payment was not settled"
		if result != nil && result.Message != "" {
			reason = result.Message
		}
		s.metrics.ObservePayment(string(method), "declined", time.Since(started))
		s.metrics.ObservePurchase(string(req.LicenseType), "payment_failed", 0)
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, reason)
	}

	s.metrics.ObservePayment(string(method), "succeeded", time.Since(started))
	return &chargeOutcome{method: method, reference: result.Reference}, nil
}

// termsFor reads only the contract's own columns; later changes to the rate
// table or marketplace name must not alter a signed agreement.
func (s *PurchaseService) termsFor(contract *models.Contract) ContractTerms {
	currency := Currency{
		Code:            contract.CurrencyCode,
		Symbol:          contract.CurrencySymbol,
		RateToCanonical: contract.CurrencyRate,
		ZeroDecimal:     contract.ZeroDecimal,
	}
	return ContractTerms{
		Marketplace:   contract.Marketplace,
		BeatTitle:     contract.BeatTitle,
		BuyerName:     contract.BuyerName,
		SellerName:    contract.SellerName,
		LicenseType:   contract.LicenseType,
		Price:         contract.PriceAtPurchase,
		Currency:      currency,
		SignatureText: contract.SignatureText,
		SignedAt:      contract.SignedAt.UTC(),
	}
}

// GetContract returns a contract to either of its parties.
func (s *PurchaseService) GetContract(ctx context.Context, actorID, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("contract")
		}
		return nil, err
	}
	if contract.BuyerID != actorID && contract.SellerID != actorID {
		return nil, ErrForbidden
	}
	return contract, nil
}

func (s *PurchaseService) ListContracts(ctx context.Context, actorID uuid.UUID) ([]models.Contract, error) {
	return s.store.ListContractsForUser(ctx, actorID)
}

// VerifyContract regenerates the body from the stored facts and checks it against
// both the stored text and its digest.
func (s *PurchaseService) VerifyContract(ctx context.Context, actorID, contractID uuid.UUID) (bool, error) {
	contract, err := s.GetContract(ctx, actorID, contractID)
	if err != nil {
		return false, err
	}
	regenerated := s.generator.Generate(s.termsFor(contract))
	return regenerated == contract.Body && utils.VerifyHash(contract.Body, contract.Digest), nil
}

// DisplayPrice renders the fee as it appears in the contract text.
func (s *PurchaseService) DisplayPrice(contract *models.Contract) string {
	terms := s.termsFor(contract)
	return s.currency.Format(terms.Price, terms.Currency)
}

// ContractFileName is the download name for a contract.
func (s *PurchaseService) ContractFileName(contract *models.Contract) string {
	return s.generator.FileName(contract.Marketplace, contract.BeatTitle)
}

// ListOwnedBeats returns the buyer's licensed beats.
func (s *PurchaseService) ListOwnedBeats(ctx context.Context, buyerID uuid.UUID) ([]models.Ownership, error) {
	return s.store.ListOwnerships(ctx, buyerID)
}
