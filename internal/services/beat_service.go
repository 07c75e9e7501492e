// internal/services/beat_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/utils"
)

const (
	DefaultMinBPM = 40
	DefaultMaxBPM = 220
)

type CreateBeatRequest struct {
	Title             string             `json:"title" validate:"required,notblank,max=255"`
	Genre             string             `json:"genre" validate:"required,max=50"`
	Mood              string             `json:"mood" validate:"max=50"`
	BPM               int                `json:"bpm" validate:"gte=0,lte=400"`
	Key               string             `json:"key" validate:"max=20"`
	Tags              []string           `json:"tags" validate:"max=20,dive,max=50"`
	CoverArtURL       string             `json:"cover_art_url" validate:"omitempty,max=500"`
	AudioURL          string             `json:"audio_url" validate:"omitempty,max=500"`
	NonExclusivePrice float64            `json:"non_exclusive_price" validate:"gte=0"`
	ExclusivePrice    float64            `json:"exclusive_price" validate:"gte=0"`
	IsFree            bool               `json:"is_free"`
	Contributors      []ContributorInput `json:"contributors" validate:"dive"`
}

type PricingInput struct {
	NonExclusivePrice float64 `json:"non_exclusive_price" validate:"gte=0"`
	ExclusivePrice    float64 `json:"exclusive_price" validate:"gte=0"`
	IsFree            bool    `json:"is_free"`
}

type BeatService struct {
	store    repository.Store
	locks    *repository.KeyedLocker
	assets   AssetStore
	notifier Notifier
}

func NewBeatService(store repository.Store, locks *repository.KeyedLocker, assets AssetStore, notifier Notifier) *BeatService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &BeatService{
		store:    store,
		locks:    locks,
		assets:   assets,
		notifier: notifier,
	}
}

func (s *BeatService) CreateBeat(ctx context.Context, producerID uuid.UUID, req CreateBeatRequest) (*models.Beat, error) {
	if err := validatePrices(req.NonExclusivePrice, req.ExclusivePrice); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	producer, err := s.store.GetUser(ctx, producerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("user")
		}
		return nil, err
	}

	contributors := make([]models.Contributor, 0, len(req.Contributors))
	for _, input := range req.Contributors {
		if input.ContributorID == producerID {
			return nil, newValidationError("contributor_id", "the producer already holds the remaining share")
		}
		contributors = append(contributors, models.Contributor{
			ContributorID: input.ContributorID,
			Name:          strings.TrimSpace(input.Name),
			Role:          input.Role,
			SplitPercent:  input.SplitPercent,
		})
	}
	if err := ValidateSplits(contributors); err != nil {
		return nil, err
	}

	beat := &models.Beat{
		ProducerID:        producer.ID,
		Title:             strings.TrimSpace(req.Title),
		Genre:             req.Genre,
		Mood:              req.Mood,
		BPM:               req.BPM,
		Key:               req.Key,
		Tags:              normalizeTags(req.Tags),
		CoverArtURL:       req.CoverArtURL,
		AudioURL:          req.AudioURL,
		NonExclusivePrice: req.NonExclusivePrice,
		ExclusivePrice:    req.ExclusivePrice,
		IsFree:            req.IsFree,
		Status:            models.BeatStatusActive,
		Version:           1,
		Contributors:      contributors,
	}
	if beat.IsFree {
		beat.NonExclusivePrice = 0
		beat.ExclusivePrice = 0
	}

	if err := s.store.CreateBeat(ctx, beat); err != nil {
		return nil, fmt.Errorf("failed to create beat: %w", err)
	}
	beat.Producer = *producer

	logrus.WithFields(logrus.Fields{
		"beat_id":     beat.ID,
		"producer_id": producerID,
		"title":       beat.Title,
	}).Info("Beat created")

	return beat, nil
}

// UploadAsset stores an audio or cover file for a producer and returns where it lives.
func (s *BeatService) UploadAsset(ctx context.Context, producerID uuid.UUID, upload AssetUpload) (*UploadResult, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("asset storage is not configured")
	}
	if _, err := s.store.GetUser(ctx, producerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("user")
		}
		return nil, err
	}

	result, err := s.assets.StoreBeatAsset(ctx, upload)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"producer_id": producerID,
		"kind":        upload.Kind,
		"key":         result.Key,
		"size":        result.Size,
	}).Info("Beat asset uploaded")

	return result, nil
}

// UpdatePricing reprices a beat. Delisted and archived beats keep their status.
func (s *BeatService) UpdatePricing(ctx context.Context, actorID, beatID uuid.UUID, input PricingInput) (*models.Beat, error) {
	if err := validatePrices(input.NonExclusivePrice, input.ExclusivePrice); err != nil {
		return nil, err
	}

	return s.mutateOwnedBeat(ctx, actorID, beatID, EventBeatUpdated, func(beat *models.Beat) error {
		beat.IsFree = input.IsFree
		beat.NonExclusivePrice = input.NonExclusivePrice
		beat.ExclusivePrice = input.ExclusivePrice
		if beat.IsFree {
			beat.NonExclusivePrice = 0
			beat.ExclusivePrice = 0
		}
		return nil
	})
}

// ArchiveBeat withdraws a beat from sale. Its contracts and ownerships are kept.
func (s *BeatService) ArchiveBeat(ctx context.Context, actorID, beatID uuid.UUID) (*models.Beat, error) {
	return s.mutateOwnedBeat(ctx, actorID, beatID, EventBeatArchived, func(beat *models.Beat) error {
		beat.Status = models.BeatStatusArchived
		return nil
	})
}

func (s *BeatService) mutateOwnedBeat(ctx context.Context, actorID, beatID uuid.UUID, event EventType, mutate func(*models.Beat) error) (*models.Beat, error) {
	unlock, err := s.locks.Lock(ctx, repository.BeatKey(beatID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var beat *models.Beat
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		beat, err = tx.GetBeat(ctx, beatID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("beat")
			}
			return err
		}
		if beat.ProducerID != actorID {
			return ErrForbidden
		}
		if err := mutate(beat); err != nil {
			return err
		}
		beat.Version++
		return tx.UpdateBeat(ctx, beat)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"beat_id": beatID,
		"status":  beat.Status,
		"version": beat.Version,
	}).Info("Beat updated")

	unlock()
	s.notifier.Publish(Event{Type: event, EntityID: beatID, ActorID: actorID, BeatID: beatID, Version: beat.Version})
	return beat, nil
}

func (s *BeatService) GetBeat(ctx context.Context, beatID uuid.UUID) (*models.Beat, error) {
	beat, err := s.store.GetBeat(ctx, beatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("beat")
		}
		return nil, err
	}
	return beat, nil
}

// SearchBeats lists the marketplace: active beats only, BPM bounded to 40-220 unless narrowed.
func (s *BeatService) SearchBeats(ctx context.Context, filter repository.BeatFilter) ([]models.Beat, int64, error) {
	if filter.MinBPM <= 0 {
		filter.MinBPM = DefaultMinBPM
	}
	if filter.MaxBPM <= 0 {
		filter.MaxBPM = DefaultMaxBPM
	}
	if filter.MinBPM > filter.MaxBPM {
		return nil, 0, newValidationError("bpm", "minimum BPM exceeds maximum BPM")
	}
	filter.Statuses = []models.BeatStatus{models.BeatStatusActive}

	beats, total, err := s.store.SearchBeats(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search beats: %w", err)
	}
	return beats, total, nil
}

// ListProducerBeats returns every beat of a producer regardless of status.
func (s *BeatService) ListProducerBeats(ctx context.Context, producerID uuid.UUID) ([]models.Beat, error) {
	return s.store.ListBeatsByProducer(ctx, producerID)
}

func (s *BeatService) ToggleFavorite(ctx context.Context, userID, beatID uuid.UUID) (bool, error) {
	if _, err := s.GetBeat(ctx, beatID); err != nil {
		return false, err
	}
	return s.store.ToggleFavorite(ctx, userID, beatID)
}

func (s *BeatService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	return s.store.ListFavorites(ctx, userID)
}

// validatePrices accepts non-negative amounts in whole cents, matching the
// decimal(12,2) price columns.
func validatePrices(prices ...float64) error {
	for _, price := range prices {
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return newValidationError("price", "must be a finite amount")
		}
		if price < 0 {
			return newValidationError("price", "prices cannot be negative")
		}
		if cents := price * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
			return newValidationError("price", "prices have at most two decimal places")
		}
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
