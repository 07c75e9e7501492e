// internal/services/split_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/utils"
)

// splitEpsilon absorbs float noise such as 33.3 + 33.3 + 33.4.
const splitEpsilon = 1e-9

type ContributorInput struct {
	ContributorID uuid.UUID `json:"contributor_id" validate:"required"`
	Name          string    `json:"name" validate:"required,notblank,max=100"`
	Role          string    `json:"role" validate:"max=50"`
	SplitPercent  float64   `json:"split_percent" validate:"gte=0,lte=100"`
}

func SumSplits(contributors []models.Contributor) float64 {
	var sum float64
	for _, c := range contributors {
		sum += c.SplitPercent
	}
	return sum
}

// RemainingShare is the percentage implicitly held by the primary producer.
func RemainingShare(contributors []models.Contributor) float64 {
	remaining := 100 - SumSplits(contributors)
	if remaining < 0 && remaining > -splitEpsilon {
		return 0
	}
	return remaining
}

// ValidateSplits checks a complete contributor set.
func ValidateSplits(contributors []models.Contributor) error {
	seen := make(map[uuid.UUID]bool, len(contributors))
	for _, c := range contributors {
		if c.SplitPercent < 0 || c.SplitPercent > 100 {
			return newValidationError("split_percent", "must be between 0 and 100")
		}
		if seen[c.ContributorID] {
			return newValidationError("contributor_id", "contributor listed more than once")
		}
		seen[c.ContributorID] = true
	}
	if SumSplits(contributors) > 100+splitEpsilon {
		return ErrSplitExceedsTotal
	}
	return nil
}

func validateContributorInput(input ContributorInput) error {
	if input.SplitPercent < 0 || input.SplitPercent > 100 {
		return newValidationError("split_percent", "must be between 0 and 100")
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

type SplitService struct {
	store    repository.Store
	locks    *repository.KeyedLocker
	notifier Notifier
}

func NewSplitService(store repository.Store, locks *repository.KeyedLocker, notifier Notifier) *SplitService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SplitService{store: store, locks: locks, notifier: notifier}
}

// AddContributor attaches a collaborator to the actor's beat after checking the
// combined split stays within 100 percent.
func (s *SplitService) AddContributor(ctx context.Context, actorID, beatID uuid.UUID, input ContributorInput) (*models.Beat, error) {
	if err := validateContributorInput(input); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)

	unlock, err := s.locks.Lock(ctx, repository.BeatKey(beatID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var beat *models.Beat
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if beat, err = s.ownedBeat(ctx, tx, actorID, beatID); err != nil {
			return err
		}
		if input.ContributorID == beat.ProducerID {
			return newValidationError("contributor_id", "the producer already holds the remaining share")
		}

		contributor := models.Contributor{
			BeatID:        beatID,
			ContributorID: input.ContributorID,
			Name:          input.Name,
			Role:          input.Role,
			SplitPercent:  input.SplitPercent,
		}
		if err := ValidateSplits(append(append([]models.Contributor{}, beat.Contributors...), contributor)); err != nil {
			return err
		}

		if err := tx.AddContributor(ctx, &contributor); err != nil {
			return err
		}
		beat.Contributors = append(beat.Contributors, contributor)
		beat.Version++
		return tx.UpdateBeat(ctx, beat)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"beat_id":        beatID,
		"contributor_id": input.ContributorID,
		"split_percent":  input.SplitPercent,
		"remaining":      RemainingShare(beat.Contributors),
	}).Info("Contributor added")

	unlock()
	s.notifier.Publish(Event{Type: EventBeatUpdated, EntityID: beatID, ActorID: actorID, BeatID: beatID, Version: beat.Version})
	return beat, nil
}

// RemoveContributor drops a collaborator; removing an absent contributor is a no-op.
func (s *SplitService) RemoveContributor(ctx context.Context, actorID, beatID, contributorID uuid.UUID) (*models.Beat, error) {
	unlock, err := s.locks.Lock(ctx, repository.BeatKey(beatID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		beat    *models.Beat
		changed bool
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if beat, err = s.ownedBeat(ctx, tx, actorID, beatID); err != nil {
			return err
		}

		kept := beat.Contributors[:0]
		for _, c := range beat.Contributors {
			if c.ContributorID == contributorID {
				changed = true
				continue
			}
			kept = append(kept, c)
		}
		if !changed {
			return nil
		}

		if err := tx.RemoveContributor(ctx, beatID, contributorID); err != nil {
			return err
		}
		beat.Contributors = kept
		beat.Version++
		return tx.UpdateBeat(ctx, beat)
	})
	if err != nil {
		return nil, err
	}

	unlock()
	if changed {
		s.notifier.Publish(Event{Type: EventBeatUpdated, EntityID: beatID, ActorID: actorID, BeatID: beatID, Version: beat.Version})
	}
	return beat, nil
}

func (s *SplitService) RemainingProducerShare(ctx context.Context, beatID uuid.UUID) (float64, error) {
	beat, err := s.store.GetBeat(ctx, beatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, notFound("beat")
		}
		return 0, err
	}
	return RemainingShare(beat.Contributors), nil
}

func (s *SplitService) ownedBeat(ctx context.Context, tx repository.Store, actorID, beatID uuid.UUID) (*models.Beat, error) {
	beat, err := tx.GetBeat(ctx, beatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("beat")
		}
		return nil, err
	}
	if beat.ProducerID != actorID {
		return nil, ErrForbidden
	}
	return beat, nil
}
