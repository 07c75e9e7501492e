// internal/services/earnings_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/metrics"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/utils"
)

// balanceEpsilon tolerates float noise when comparing an amount with the balance.
const balanceEpsilon = 1e-9

type WithdrawalInput struct {
	ProducerID  uuid.UUID               `json:"-" validate:"required"`
	Amount      float64                 `json:"amount"`
	Method      models.WithdrawalMethod `json:"method" validate:"required,withdrawal_method"`
	Destination string                  `json:"destination"`
}

type EarningsLine struct {
	BeatID       uuid.UUID `json:"beat_id"`
	BeatTitle    string    `json:"beat_title"`
	Role         string    `json:"role"`
	SharePercent float64   `json:"share_percent"`
	GrossRevenue float64   `json:"gross_revenue"`
	Earnings     float64   `json:"earnings"`
}

// BeatEarnings is one participant's view of a beat's revenue.
type BeatEarnings struct {
	BeatID       uuid.UUID `json:"beat_id"`
	GrossRevenue float64   `json:"gross_revenue"`
	SharePercent float64   `json:"share_percent"`
	Earnings     float64   `json:"your_earnings"`
}

// SalesMonthLayout keys monthly sales, e.g. "2024-03".
const SalesMonthLayout = "2006-01"

type MonthlySales struct {
	Month   string  `json:"month"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
}

type ProducerStats struct {
	ProducerID    uuid.UUID `json:"producer_id"`
	TotalUploads  int       `json:"total_uploads"`
	TotalSales    int       `json:"total_sales"`
	SalesValue    float64   `json:"sales_value"`
	AverageRating float64   `json:"average_rating"`
	RatingsCount  int64     `json:"ratings_count"`
}

type EarningsSummary struct {
	TotalRevenue       float64        `json:"total_revenue"`
	PendingWithdrawals float64        `json:"pending_withdrawals"`
	CompletedPayouts   float64        `json:"completed_payouts"`
	WithdrawableAmount float64        `json:"withdrawable_balance"`
	Lines              []EarningsLine `json:"lines"`
}

type EarningsService struct {
	store         repository.Store
	locks         *repository.KeyedLocker
	notifier      Notifier
	metrics       *metrics.Metrics
	minimumPayout float64
	now           func() time.Time
}

func NewEarningsService(store repository.Store, locks *repository.KeyedLocker, notifier Notifier, m *metrics.Metrics, minimumPayout float64) *EarningsService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &EarningsService{
		store:         store,
		locks:         locks,
		notifier:      notifier,
		metrics:       m,
		minimumPayout: minimumPayout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// GrossRevenueForBeat sums the prices recorded on the beat's contracts.
func (s *EarningsService) GrossRevenueForBeat(ctx context.Context, beatID uuid.UUID) (float64, error) {
	return grossRevenue(ctx, s.store, beatID)
}

func grossRevenue(ctx context.Context, store repository.Store, beatID uuid.UUID) (float64, error) {
	total, err := store.SumContractPrices(ctx, beatID)
	if err != nil {
		return 0, fmt.Errorf("gross revenue for beat %s: %w", beatID, err)
	}
	return total, nil
}

// ContributorShare is the contributor's cut of the beat's gross revenue. The
// producer's id resolves to the remaining share; anyone else earns nothing.
func (s *EarningsService) ContributorShare(ctx context.Context, beatID, contributorID uuid.UUID) (float64, error) {
	beat, err := s.store.GetBeat(ctx, beatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, notFound("beat")
		}
		return 0, err
	}

	gross, err := s.GrossRevenueForBeat(ctx, beatID)
	if err != nil {
		return 0, err
	}
	return gross * sharePercent(beat, contributorID) / 100, nil
}

func sharePercent(beat *models.Beat, userID uuid.UUID) float64 {
	if beat.ProducerID == userID {
		return RemainingShare(beat.Contributors)
	}
	for _, c := range beat.Contributors {
		if c.ContributorID == userID {
			return c.SplitPercent
		}
	}
	return 0
}

func participates(beat *models.Beat, userID uuid.UUID) bool {
	if beat.ProducerID == userID {
		return true
	}
	for _, c := range beat.Contributors {
		if c.ContributorID == userID {
			return true
		}
	}
	return false
}

// BeatEarningsFor reports a beat's revenue to its producer or one of its contributors.
func (s *EarningsService) BeatEarningsFor(ctx context.Context, actorID, beatID uuid.UUID) (*BeatEarnings, error) {
	beat, err := s.store.GetBeat(ctx, beatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("beat")
		}
		return nil, err
	}
	if !participates(beat, actorID) {
		return nil, ErrForbidden
	}

	gross, err := s.GrossRevenueForBeat(ctx, beatID)
	if err != nil {
		return nil, err
	}
	share := sharePercent(beat, actorID)
	return &BeatEarnings{
		BeatID:       beatID,
		GrossRevenue: gross,
		SharePercent: share,
		Earnings:     gross * share / 100,
	}, nil
}

// SalesByMonth groups the producer's sold licenses by the UTC month they were
// signed, oldest first. Months without sales are omitted.
func (s *EarningsService) SalesByMonth(ctx context.Context, producerID uuid.UUID) ([]MonthlySales, error) {
	contracts, err := s.store.ListContractsBySeller(ctx, producerID)
	if err != nil {
		return nil, fmt.Errorf("sales for producer %s: %w", producerID, err)
	}

	months := make([]MonthlySales, 0)
	index := make(map[string]int)
	for _, contract := range contracts {
		key := contract.SignedAt.UTC().Format(SalesMonthLayout)
		i, ok := index[key]
		if !ok {
			i = len(months)
			index[key] = i
			months = append(months, MonthlySales{Month: key})
		}
		months[i].Sales++
		months[i].Revenue += contract.PriceAtPurchase
	}
	return months, nil
}

// ProducerStats aggregates a producer's catalog. The average rating is weighted
// by each beat's ratings count.
func (s *EarningsService) ProducerStats(ctx context.Context, producerID uuid.UUID) (*ProducerStats, error) {
	if _, err := s.store.GetUser(ctx, producerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("user")
		}
		return nil, err
	}

	beats, err := s.store.ListBeatsByProducer(ctx, producerID)
	if err != nil {
		return nil, err
	}
	contracts, err := s.store.ListContractsBySeller(ctx, producerID)
	if err != nil {
		return nil, err
	}

	stats := &ProducerStats{
		ProducerID:   producerID,
		TotalUploads: len(beats),
		TotalSales:   len(contracts),
	}
	var weighted float64
	for _, beat := range beats {
		weighted += beat.Rating * float64(beat.RatingsCount)
		stats.RatingsCount += beat.RatingsCount
	}
	if stats.RatingsCount > 0 {
		stats.AverageRating = weighted / float64(stats.RatingsCount)
	}
	for _, contract := range contracts {
		stats.SalesValue += contract.PriceAtPurchase
	}
	return stats, nil
}

// EarningsBreakdown lists every beat the user earns from, as producer or contributor.
func (s *EarningsService) EarningsBreakdown(ctx context.Context, userID uuid.UUID) ([]EarningsLine, error) {
	return earningsBreakdown(ctx, s.store, userID)
}

func earningsBreakdown(ctx context.Context, store repository.Store, userID uuid.UUID) ([]EarningsLine, error) {
	var lines []EarningsLine

	produced, err := store.ListBeatsByProducer(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range produced {
		beat := &produced[i]
		gross, err := grossRevenue(ctx, store, beat.ID)
		if err != nil {
			return nil, err
		}
		share := RemainingShare(beat.Contributors)
		lines = append(lines, EarningsLine{
			BeatID:       beat.ID,
			BeatTitle:    beat.Title,
			Role:         "Producer",
			SharePercent: share,
			GrossRevenue: gross,
			Earnings:     gross * share / 100,
		})
	}

	contributions, err := store.ListContributions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range contributions {
		beat, err := store.GetBeat(ctx, c.BeatID)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		gross, err := grossRevenue(ctx, store, c.BeatID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, EarningsLine{
			BeatID:       c.BeatID,
			BeatTitle:    beat.Title,
			Role:         c.Role,
			SharePercent: c.SplitPercent,
			GrossRevenue: gross,
			Earnings:     gross * c.SplitPercent / 100,
		})
	}

	return lines, nil
}

func (s *EarningsService) TotalRevenueAttributable(ctx context.Context, userID uuid.UUID) (float64, error) {
	return totalAttributable(ctx, s.store, userID)
}

func totalAttributable(ctx context.Context, store repository.Store, userID uuid.UUID) (float64, error) {
	lines, err := earningsBreakdown(ctx, store, userID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, line := range lines {
		total += line.Earnings
	}
	return total, nil
}

// WithdrawableBalance is attributable revenue minus pending and completed
// withdrawals. It is never reported below zero.
func (s *EarningsService) WithdrawableBalance(ctx context.Context, producerID uuid.UUID) (float64, error) {
	return withdrawableBalance(ctx, s.store, producerID)
}

func withdrawableBalance(ctx context.Context, store repository.Store, producerID uuid.UUID) (float64, error) {
	revenue, err := totalAttributable(ctx, store, producerID)
	if err != nil {
		return 0, err
	}
	committed, err := store.SumWithdrawals(ctx, producerID, models.WithdrawalStatusPending, models.WithdrawalStatusCompleted)
	if err != nil {
		return 0, err
	}
	return math.Max(0, revenue-committed), nil
}

func (s *EarningsService) Summary(ctx context.Context, userID uuid.UUID) (*EarningsSummary, error) {
	lines, err := s.EarningsBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := &EarningsSummary{Lines: lines}
	for _, line := range lines {
		summary.TotalRevenue += line.Earnings
	}

	if summary.PendingWithdrawals, err = s.store.SumWithdrawals(ctx, userID, models.WithdrawalStatusPending); err != nil {
		return nil, err
	}
	if summary.CompletedPayouts, err = s.store.SumWithdrawals(ctx, userID, models.WithdrawalStatusCompleted); err != nil {
		return nil, err
	}
	summary.WithdrawableAmount = math.Max(0, summary.TotalRevenue-summary.PendingWithdrawals-summary.CompletedPayouts)
	return summary, nil
}

// RequestWithdrawal validates the request and records it as pending. The balance
// check and the insert share one per-producer critical section.
func (s *EarningsService) RequestWithdrawal(ctx context.Context, input WithdrawalInput) (*models.WithdrawalRequest, error) {
	input.Destination = strings.TrimSpace(input.Destination)
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount <= 0 {
		return nil, newValidationError("amount", "must be greater than zero")
	}
	if input.Destination == "" {
		return nil, newValidationError("destination", "is required")
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.Amount < s.minimumPayout {
		return nil, newValidationError("amount", fmt.Sprintf("minimum payout amount is %.2f", s.minimumPayout))
	}

	unlock, err := s.locks.Lock(ctx, repository.ProducerKey(input.ProducerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	withdrawal := &models.WithdrawalRequest{
		ProducerID:  input.ProducerID,
		Amount:      input.Amount,
		Method:      input.Method,
		Destination: input.Destination,
		Status:      models.WithdrawalStatusPending,
		RequestedAt: s.now(),
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		balance, err := withdrawableBalance(ctx, tx, input.ProducerID)
		if err != nil {
			return err
		}
		if input.Amount > balance+balanceEpsilon {
			return ErrInsufficientBalance
		}
		return tx.CreateWithdrawal(ctx, withdrawal)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			s.metrics.ObserveWithdrawal("rejected")
		}
		return nil, err
	}

	s.metrics.ObserveWithdrawal(string(models.WithdrawalStatusPending))
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"producer_id":   input.ProducerID,
		"amount":        input.Amount,
		"method":        input.Method,
	}).Info("Withdrawal requested")

	unlock()
	s.notifier.Publish(Event{Type: EventWithdrawalRequested, EntityID: withdrawal.ID, ActorID: input.ProducerID})
	return withdrawal, nil
}

func (s *EarningsService) ListWithdrawals(ctx context.Context, producerID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return s.store.ListWithdrawals(ctx, producerID)
}

// SettleWithdrawal applies the external confirmation of a pending withdrawal.
// A failed withdrawal no longer counts against the balance.
func (s *EarningsService) SettleWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID, status models.WithdrawalStatus, reason string) (*models.WithdrawalRequest, error) {
	if status != models.WithdrawalStatusCompleted && status != models.WithdrawalStatusFailed {
		return nil, newValidationError("status", "must be completed or failed")
	}

	withdrawal, err := s.store.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("withdrawal")
		}
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, repository.ProducerKey(withdrawal.ProducerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		current, err := tx.GetWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if current.Status != models.WithdrawalStatusPending {
			return ErrInvalidTransition
		}

		now := s.now()
		current.Status = status
		current.ProcessedAt = &now
		if status == models.WithdrawalStatusFailed {
			current.FailureReason = strings.TrimSpace(reason)
		}
		withdrawal = current
		return tx.UpdateWithdrawal(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveWithdrawal(string(status))
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"producer_id":   withdrawal.ProducerID,
		"status":        status,
	}).Info("Withdrawal settled")

	unlock()
	s.notifier.Publish(Event{Type: EventWithdrawalSettled, EntityID: withdrawal.ID, ActorID: actorID})
	return withdrawal, nil
}
