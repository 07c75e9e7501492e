// internal/services/purchase_service_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/services"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, req services.ChargeRequest) (*services.ChargeResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.ChargeResult)
	return result, args.Error(1)
}

func settled() *services.ChargeResult {
	return &services.ChargeResult{Success: true, Reference: "pi_test", Status: "succeeded"}
}

func TestExclusivePurchaseWorkedExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	engineer := f.producer(t, "Lena Cross")
	artist := f.artist(t, "Kai Rivers")
	other := f.artist(t, "Other Artist")

	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)
	_, err := f.splits.AddContributor(ctx, producer.ID, beat.ID, services.ContributorInput{
		ContributorID: engineer.ID, Name: engineer.Name, Role: "Mix Engineer", SplitPercent: 25,
	})
	require.NoError(t, err)

	events := record(f.bus)
	result := f.buy(t, artist, beat, models.LicenseTypeExclusive)

	assert.False(t, result.AlreadyOwned)
	assert.Equal(t, 299.99, result.Contract.PriceAtPurchase)
	assert.Equal(t, models.LicenseTypeExclusive, result.Contract.LicenseType)
	assert.Equal(t, "USD", result.Contract.CurrencyCode)
	assert.Equal(t, models.PaymentMethodCard, result.Contract.PaymentMethod)
	assert.NotEmpty(t, result.Contract.PaymentReference)
	assert.Contains(t, result.Contract.Body, "Publishing rights are split 50% to the Producer and 50% to the Licensee.")
	assert.Contains(t, result.Contract.Body, "License Fee: $299.99")
	assert.Equal(t, services.ExclusivePublishingSharePercent, result.Ownership.PublishingSharePercent)
	assert.Equal(t, []services.EventType{services.EventContractCreated, services.EventBeatDelisted}, events.types())

	stored, err := f.store.GetBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeatStatusDelisted, stored.Status)
	assert.Greater(t, stored.Version, beat.Version)

	for _, license := range []models.LicenseType{models.LicenseTypeNonExclusive, models.LicenseTypeExclusive} {
		_, err := f.purchases.Purchase(ctx, cardPurchase(other, beat, license))
		assert.ErrorIs(t, err, services.ErrBeatNotAvailable)
	}

	engineerShare, err := f.earnings.ContributorShare(ctx, beat.ID, engineer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 74.9975, engineerShare, 1e-6)

	producerShare, err := f.earnings.ContributorShare(ctx, beat.ID, producer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 224.9925, producerShare, 1e-6)

	// Delisted beats drop out of the marketplace.
	beats, total, err := f.beats.SearchBeats(ctx, repository.BeatFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, beats)
}

func TestNonExclusivePurchaseIsIdempotent(t *testing.T) {
	gateway := &mockGateway{}
	gateway.On("Charge", mock.Anything, mock.Anything).Return(settled(), nil).Once()

	f := newFixtureWithGateway(t, gateway)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Midnight City", 39.99, 349.99)

	first := f.buy(t, artist, beat, models.LicenseTypeNonExclusive)
	second := f.buy(t, artist, beat, models.LicenseTypeNonExclusive)

	assert.False(t, first.AlreadyOwned)
	assert.True(t, second.AlreadyOwned)
	assert.Equal(t, first.Contract.ID, second.Contract.ID)
	assert.Equal(t, first.Ownership.ID, second.Ownership.ID)

	contracts, err := f.store.ListContractsForUser(ctx, artist.ID)
	require.NoError(t, err)
	assert.Len(t, contracts, 1)

	stored, err := f.store.GetBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeatStatusActive, stored.Status)

	gateway.AssertNumberOfCalls(t, "Charge", 1)
	gateway.AssertExpectations(t)
}

func TestPaymentFailureLeavesNoState(t *testing.T) {
	tests := []struct {
		name   string
		result *services.ChargeResult
		err    error
	}{
		{"declined", &services.ChargeResult{Success: false, Status: "declined", Message: "card declined"}, nil},
		{"collaborator error", nil, errors.New("connection reset")},
		{"nil result", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &mockGateway{}
			gateway.On("Charge", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			f := newFixtureWithGateway(t, gateway)
			ctx := context.Background()

			producer := f.producer(t, "Nightshift Audio")
			artist := f.artist(t, "Kai Rivers")
			beat := f.beat(t, producer, "Ocean Waves", 29.99, 249.99)

			_, err := f.purchases.Purchase(ctx, cardPurchase(artist, beat, models.LicenseTypeExclusive))
			assert.ErrorIs(t, err, services.ErrPaymentFailed)

			contracts, err := f.store.ListContractsForUser(ctx, artist.ID)
			require.NoError(t, err)
			assert.Empty(t, contracts)

			_, err = f.store.GetOwnership(ctx, artist.ID, beat.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			stored, err := f.store.GetBeat(ctx, beat.ID)
			require.NoError(t, err)
			assert.Equal(t, models.BeatStatusActive, stored.Status)
			assert.Equal(t, beat.Version, stored.Version)
		})
	}
}

func TestChargeRequestCarriesCanonicalAmount(t *testing.T) {
	gateway := &mockGateway{}
	f := newFixtureWithGateway(t, gateway)

	producer := f.producer(t, "Nightshift Audio")
	buyer := f.user(t, "Tokyo Artist", models.UserRoleArtist, "Japan")
	beat := f.beat(t, producer, "Summer Vibe", 29.99, 279.99)

	gateway.On("Charge", mock.Anything, mock.MatchedBy(func(req services.ChargeRequest) bool {
		return req.Amount == 29.99 &&
			req.Currency == services.CanonicalCurrencyCode &&
			req.Method == models.PaymentMethodCard &&
			req.Metadata["beat_id"] == beat.ID.String()
	})).Return(settled(), nil).Once()

	result := f.buy(t, buyer, beat, models.LicenseTypeNonExclusive)

	// The contract shows the buyer's display currency; the stored price stays canonical.
	assert.Equal(t, "JPY", result.Contract.CurrencyCode)
	assert.Equal(t, 29.99, result.Contract.PriceAtPurchase)
	assert.Contains(t, result.Contract.Body, "License Fee: ¥4,708")
	gateway.AssertExpectations(t)
}

func TestConcurrentExclusivePurchasesHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	const buyers = 6
	artists := make([]*models.User, buyers)
	for i := range artists {
		artists[i] = f.artist(t, "Buyer")
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	for _, artist := range artists {
		wg.Add(1)
		go func(buyer *models.User) {
			defer wg.Done()
			_, err := f.purchases.Purchase(ctx, cardPurchase(buyer, beat, models.LicenseTypeExclusive))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, services.ErrBeatNotAvailable):
				unavailable++
			default:
				t.Errorf("unexpected purchase error: %v", err)
			}
		}(artist)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, unavailable)

	gross, err := f.earnings.GrossRevenueForBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.InDelta(t, 299.99, gross, 1e-9)
}

func TestCancellationBeforePaymentChangesNothing(t *testing.T) {
	gateway := &mockGateway{}
	f := newFixtureWithGateway(t, gateway)

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Rainy Days", 19.99, 199.99)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.purchases.Purchase(ctx, cardPurchase(artist, beat, models.LicenseTypeExclusive))
	assert.ErrorIs(t, err, context.Canceled)
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)

	stored, err := f.store.GetBeat(context.Background(), beat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeatStatusActive, stored.Status)
}

func TestCancellationDuringPaymentChangesNothing(t *testing.T) {
	f := newFixtureWithGateway(t, &services.SimulatedGateway{Latency: time.Second})

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Rainy Days", 19.99, 199.99)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.purchases.Purchase(ctx, cardPurchase(artist, beat, models.LicenseTypeExclusive))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	contracts, err := f.store.ListContractsForUser(context.Background(), artist.ID)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestCommitIgnoresCancellationAfterPayment(t *testing.T) {
	gateway := &mockGateway{}
	f := newFixtureWithGateway(t, gateway)

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Rainy Days", 19.99, 199.99)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gateway.On("Charge", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(settled(), nil)

	result, err := f.purchases.Purchase(ctx, cardPurchase(artist, beat, models.LicenseTypeExclusive))
	require.NoError(t, err)
	assert.Equal(t, "pi_test", result.Contract.PaymentReference)

	stored, err := f.store.GetBeat(context.Background(), beat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BeatStatusDelisted, stored.Status)
}

func TestFreeBeatIsNotCharged(t *testing.T) {
	gateway := &mockGateway{}
	f := newFixtureWithGateway(t, gateway)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat, err := f.beats.CreateBeat(ctx, producer.ID, services.CreateBeatRequest{
		Title:             "Rainy Days",
		Genre:             "Lo-Fi",
		NonExclusivePrice: 10,
		ExclusivePrice:    100,
		IsFree:            true,
	})
	require.NoError(t, err)
	assert.Zero(t, beat.NonExclusivePrice)

	result, err := f.purchases.Purchase(ctx, services.PurchaseRequest{
		BuyerID:       artist.ID,
		BeatID:        beat.ID,
		LicenseType:   models.LicenseTypeNonExclusive,
		SignatureText: "Kai",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodFree, result.Contract.PaymentMethod)
	assert.Zero(t, result.Contract.PriceAtPurchase)
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestUnsettledPaymentMethodsFail(t *testing.T) {
	f := newFixture(t)

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	for _, method := range []models.PaymentMethod{models.PaymentMethodTransfer, models.PaymentMethodBitcoin} {
		req := cardPurchase(artist, beat, models.LicenseTypeNonExclusive)
		req.PaymentMethod = method
		_, err := f.purchases.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, services.ErrPaymentFailed, string(method))
	}

	req := cardPurchase(artist, beat, models.LicenseTypeNonExclusive)
	req.PaymentDetails = nil
	_, err := f.purchases.Purchase(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrPaymentFailed)
}

func TestUpgradeFromNonExclusiveToExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	first := f.buy(t, artist, beat, models.LicenseTypeNonExclusive)
	upgraded := f.buy(t, artist, beat, models.LicenseTypeExclusive)

	assert.NotEqual(t, first.Contract.ID, upgraded.Contract.ID)
	assert.Equal(t, first.Ownership.ID, upgraded.Ownership.ID)
	assert.Equal(t, models.LicenseTypeExclusive, upgraded.Ownership.LicenseType)
	assert.Equal(t, upgraded.Contract.ID, upgraded.Ownership.ContractID)
	assert.Equal(t, services.ExclusivePublishingSharePercent, upgraded.Ownership.PublishingSharePercent)

	// The earlier contract stays on record untouched.
	original, err := f.store.GetContract(ctx, first.Contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseTypeNonExclusive, original.LicenseType)

	owned, err := f.purchases.ListOwnedBeats(ctx, artist.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, models.LicenseTypeExclusive, owned[0].LicenseType)

	gross, err := f.earnings.GrossRevenueForBeat(ctx, beat.ID)
	require.NoError(t, err)
	assert.InDelta(t, 329.98, gross, 1e-6)
}

func TestPurchaseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	req := cardPurchase(artist, beat, models.LicenseType("lease"))
	_, err := f.purchases.Purchase(ctx, req)
	assert.ErrorIs(t, err, services.ErrValidation)

	req = cardPurchase(artist, beat, models.LicenseTypeNonExclusive)
	req.SignatureText = "   "
	_, err = f.purchases.Purchase(ctx, req)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.purchases.Purchase(ctx, cardPurchase(producer, beat, models.LicenseTypeNonExclusive))
	assert.ErrorIs(t, err, services.ErrValidation)

	archived, err := f.beats.ArchiveBeat(ctx, producer.ID, beat.ID)
	require.NoError(t, err)
	_, err = f.purchases.Purchase(ctx, cardPurchase(artist, archived, models.LicenseTypeNonExclusive))
	assert.ErrorIs(t, err, services.ErrBeatNotAvailable)
}

func TestContractAccessAndVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	stranger := f.artist(t, "Stranger")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)
	result := f.buy(t, artist, beat, models.LicenseTypeNonExclusive)

	for _, party := range []*models.User{artist, producer} {
		contract, err := f.purchases.GetContract(ctx, party.ID, result.Contract.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Contract.Body, contract.Body)

		valid, err := f.purchases.VerifyContract(ctx, party.ID, result.Contract.ID)
		require.NoError(t, err)
		assert.True(t, valid)
	}

	_, err := f.purchases.GetContract(ctx, stranger.ID, result.Contract.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	sellerContracts, err := f.purchases.ListContracts(ctx, producer.ID)
	require.NoError(t, err)
	assert.Len(t, sellerContracts, 1)

	assert.Equal(t, "CACSdistro_Contract_Sunset_Drive.txt", f.purchases.ContractFileName(result.Contract))

	require.NoError(t, f.db.Model(&models.Contract{}).
		Where("id = ?", result.Contract.ID).
		Update("body", result.Contract.Body+"\nExtra clause.").Error)

	valid, err := f.purchases.VerifyContract(ctx, artist.ID, result.Contract.ID)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestContractSurvivesRateAndMarketplaceChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	producer := f.producer(t, "Nightshift Audio")
	artist := f.user(t, "London Artist", models.UserRoleArtist, "United Kingdom")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)
	result := f.buy(t, artist, beat, models.LicenseTypeExclusive)
	require.Contains(t, result.Contract.Body, "License Fee: £245.99")

	table := services.DefaultCurrencyTable()
	table["United Kingdom"] = services.Currency{Code: "GBP", Symbol: "£", RateToCanonical: 0.79}
	repriced := services.NewCurrencyService(table, "United States")
	renamed := services.NewPurchaseService(f.store, f.locks, services.NewSimulatedGateway(),
		services.NewContractGenerator(repriced), repriced, f.bus, f.metrics, "Renamed Market")

	valid, err := renamed.VerifyContract(ctx, artist.ID, result.Contract.ID)
	require.NoError(t, err)
	assert.True(t, valid)

	stored, err := renamed.GetContract(ctx, artist.ID, result.Contract.ID)
	require.NoError(t, err)
	assert.Equal(t, testMarketplace, stored.Marketplace)
	assert.Equal(t, 0.82, stored.CurrencyRate)
	assert.Equal(t, "CACSdistro_Contract_Sunset_Drive.txt", renamed.ContractFileName(stored))
	assert.Equal(t, "£245.99", renamed.DisplayPrice(stored))
}

func TestSubscriberCanRateFromContractCreated(t *testing.T) {
	f := newFixture(t)

	producer := f.producer(t, "Nightshift Audio")
	artist := f.artist(t, "Kai Rivers")
	beat := f.beat(t, producer, "Sunset Drive", 29.99, 299.99)

	var (
		rated   *models.Beat
		rateErr error
	)
	f.bus.Subscribe(func(e services.Event) {
		if e.Type != services.EventContractCreated {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		rated, rateErr = f.ratings.Rate(ctx, e.ActorID, e.BeatID, 5)
	})

	f.buy(t, artist, beat, models.LicenseTypeNonExclusive)

	require.NoError(t, rateErr)
	require.NotNil(t, rated)
	assert.Equal(t, 5.0, rated.Rating)
	assert.Equal(t, int64(1), rated.RatingsCount)
	assert.Zero(t, f.locks.Size())
}
