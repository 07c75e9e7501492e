// internal/services/rating_service_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/services"
)

func intPtr(v int) *int { return &v }

func TestApplyRating(t *testing.T) {
	rating, count := services.ApplyRating(0, 0, nil, 4)
	assert.Equal(t, 4.0, rating)
	assert.Equal(t, int64(1), count)

	rating, count = services.ApplyRating(rating, count, nil, 2)
	assert.Equal(t, 3.0, rating)
	assert.Equal(t, int64(2), count)

	// Replacing a value keeps the count.
	rating, count = services.ApplyRating(rating, count, intPtr(2), 5)
	assert.Equal(t, 4.5, rating)
	assert.Equal(t, int64(2), count)
}

func TestApplyRatingMatchesMeanOfDistinctRaters(t *testing.T) {
	values := []int{5, 3, 4, 1, 2, 5, 5}

	var rating float64
	var count int64
	sum := 0
	for _, v := range values {
		rating, count = services.ApplyRating(rating, count, nil, v)
		sum += v
	}

	assert.Equal(t, int64(len(values)), count)
	assert.InDelta(t, float64(sum)/float64(len(values)), rating, 1e-9)
}

func TestRateReplacesPriorValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)
	f.buy(t, artist, beat, models.LicenseTypeNonExclusive)

	rated, err := f.ratings.Rate(ctx, artist.ID, beat.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rated.Rating)
	assert.Equal(t, int64(1), rated.RatingsCount)

	rated, err = f.ratings.Rate(ctx, artist.ID, beat.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, rated.Rating)
	assert.Equal(t, int64(1), rated.RatingsCount)

	stored, err := f.store.GetBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, stored.Rating)
	assert.Equal(t, int64(1), stored.RatingsCount)
	assert.Greater(t, stored.Version, beat.Version)
}

func TestRateRejectsOutOfRangeValues(t *testing.T) {
	f := newFixture(t)
	producer := f.producer(t, "Nightshift Audio")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	for _, value := range []int{0, 6, -1} {
		_, err := f.ratings.Rate(context.Background(), uuid.New(), beat.ID, value)
		assert.ErrorIs(t, err, services.ErrInvalidRatingValue)
	}

	stored, err := f.store.GetBeat(context.Background(), beat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.RatingsCount)
}

func TestRateRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	producer := f.producer(t, "Nightshift Audio")
	stranger := f.artist(t, "Stranger")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	_, err := f.ratings.Rate(context.Background(), stranger.ID, beat.ID, 5)
	assert.ErrorIs(t, err, services.ErrRatingRequiresPurchase)
}

func TestRateUnknownBeat(t *testing.T) {
	f := newFixture(t)

	_, err := f.ratings.Rate(context.Background(), uuid.New(), uuid.New(), 3)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestConcurrentRatersAreAllCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	values := []int{5, 4, 3, 5, 1, 2, 4, 5}
	raters := make([]*models.User, len(values))
	for i := range values {
		raters[i] = f.artist(t, "Rater")
		f.buy(t, raters[i], beat, models.LicenseTypeNonExclusive)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(values))
	for i, v := range values {
		wg.Add(1)
		go func(rater *models.User, value int) {
			defer wg.Done()
			if _, err := f.ratings.Rate(ctx, rater.ID, beat.ID, value); err != nil {
				errs <- err
			}
		}(raters[i], v)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected rating error: %v", err)
	}

	stored, err := f.store.GetBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(values)), stored.RatingsCount)
	assert.InDelta(t, 29.0/8.0, stored.Rating, 1e-9)
}

func TestRatePublishesEvent(t *testing.T) {
	f := newFixture(t)
	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)
	f.buy(t, artist, beat, models.LicenseTypeNonExclusive)

	events := record(f.bus)
	_, err := f.ratings.Rate(context.Background(), artist.ID, beat.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, []services.EventType{services.EventRatingUpdated}, events.types())
}

func TestRateHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	producer := f.producer(t, "Nightshift Audio")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ratings.Rate(ctx, uuid.New(), beat.ID, 3)
	assert.True(t, errors.Is(err, context.Canceled))
}
