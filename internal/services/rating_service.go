// internal/services/rating_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/metrics"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
)

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// ApplyRating folds one rating into a running mean. prior is the rater's previous
// value, nil when the rater is new.
func ApplyRating(rating float64, count int64, prior *int, value int) (float64, int64) {
	total := rating * float64(count)
	newCount := count
	if prior == nil {
		newCount++
		total += float64(value)
	} else {
		total += float64(value - *prior)
	}

	if newCount == 0 {
		return 0, 0
	}
	return total / float64(newCount), newCount
}

type RatingService struct {
	store    repository.Store
	locks    *repository.KeyedLocker
	notifier Notifier
	metrics  *metrics.Metrics
}

func NewRatingService(store repository.Store, locks *repository.KeyedLocker, notifier Notifier, m *metrics.Metrics) *RatingService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &RatingService{store: store, locks: locks, notifier: notifier, metrics: m}
}

// Rate records raterID's value for a beat, replacing any earlier value from the same rater.
func (s *RatingService) Rate(ctx context.Context, raterID, beatID uuid.UUID, value int) (*models.Beat, error) {
	if value < MinRatingValue || value > MaxRatingValue {
		return nil, ErrInvalidRatingValue
	}

	unlock, err := s.locks.Lock(ctx, repository.BeatKey(beatID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		beat     *models.Beat
		replaced bool
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		beat, err = tx.GetBeat(ctx, beatID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("beat")
			}
			return err
		}

		if _, err := tx.GetOwnership(ctx, raterID, beatID); err != nil {
			if repository.IsNotFound(err) {
				return ErrRatingRequiresPurchase
			}
			return err
		}

		entry, err := tx.GetRatingEntry(ctx, raterID, beatID)
		var prior *int
		switch {
		case err == nil:
			prior = &entry.Value
			replaced = true
		case repository.IsNotFound(err):
			entry = &models.RatingEntry{RaterID: raterID, BeatID: beatID}
		default:
			return err
		}

		beat.Rating, beat.RatingsCount = ApplyRating(beat.Rating, beat.RatingsCount, prior, value)
		beat.Version++
		entry.Value = value

		if err := tx.UpdateBeat(ctx, beat); err != nil {
			return err
		}
		return tx.SaveRatingEntry(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("rate beat: %w", err)
	}

	s.metrics.ObserveRating(replaced)
	logrus.WithFields(logrus.Fields{
		"beat_id":       beatID,
		"rater_id":      raterID,
		"value":         value,
		"rating":        beat.Rating,
		"ratings_count": beat.RatingsCount,
	}).Debug("Rating recorded")

	unlock()
	s.notifier.Publish(Event{
		Type:     EventRatingUpdated,
		EntityID: beat.ID,
		ActorID:  raterID,
		BeatID:   beat.ID,
		Version:  beat.Version,
	})
	return beat, nil
}
