// internal/services/helpers_test.go
package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/beatmarket/internal/database"
	"github.com/javajoker/beatmarket/internal/metrics"
	"github.com/javajoker/beatmarket/internal/models"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/services"
)

const testMarketplace = "CACSdistro"

var signingTime = time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	store    *repository.GormStore
	locks    *repository.KeyedLocker
	bus      *services.EventBus
	currency *services.CurrencyService
	metrics  *metrics.Metrics

	beats     *services.BeatService
	splits    *services.SplitService
	ratings   *services.RatingService
	purchases *services.PurchaseService
	earnings  *services.EarningsService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithGateway(t, services.NewSimulatedGateway())
}

func newFixtureWithGateway(t *testing.T, gateway services.PaymentGateway) *fixture {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	f := &fixture{
		db:       db,
		store:    repository.NewGormStore(db),
		locks:    repository.NewKeyedLocker(),
		bus:      services.NewEventBus(),
		currency: services.NewCurrencyService(services.DefaultCurrencyTable(), "United States"),
		metrics:  metrics.New(),
	}

	f.beats = services.NewBeatService(f.store, f.locks, nil, f.bus)
	f.splits = services.NewSplitService(f.store, f.locks, f.bus)
	f.ratings = services.NewRatingService(f.store, f.locks, f.bus, f.metrics)
	f.purchases = services.NewPurchaseService(f.store, f.locks, gateway, services.NewContractGenerator(f.currency), f.currency, f.bus, f.metrics, testMarketplace)
	f.purchases.SetClock(func() time.Time { return signingTime })
	f.earnings = services.NewEarningsService(f.store, f.locks, f.bus, f.metrics, 0)
	return f
}

func (f *fixture) user(t *testing.T, name string, role models.UserRole, country string) *models.User {
	t.Helper()
	u := &models.User{
		Name:    name,
		Email:   uuid.NewString() + "@example.com",
		Role:    role,
		Country: country,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) producer(t *testing.T, name string) *models.User {
	return f.user(t, name, models.UserRoleProducer, "United States")
}

func (f *fixture) artist(t *testing.T, name string) *models.User {
	return f.user(t, name, models.UserRoleArtist, "United States")
}

func (f *fixture) beat(t *testing.T, producer *models.User, title string, nonExclusive, exclusive float64) *models.Beat {
	t.Helper()
	beat, err := f.beats.CreateBeat(context.Background(), producer.ID, services.CreateBeatRequest{
		Title:             title,
		Genre:             "Trap",
		Mood:              "Energetic",
		BPM:               145,
		NonExclusivePrice: nonExclusive,
		ExclusivePrice:    exclusive,
	})
	require.NoError(t, err)
	return beat
}

func (f *fixture) buy(t *testing.T, buyer *models.User, beat *models.Beat, license models.LicenseType) *services.PurchaseResult {
	t.Helper()
	result, err := f.purchases.Purchase(context.Background(), cardPurchase(buyer, beat, license))
	require.NoError(t, err)
	return result
}

func cardPurchase(buyer *models.User, beat *models.Beat, license models.LicenseType) services.PurchaseRequest {
	return services.PurchaseRequest{
		BuyerID:        buyer.ID,
		BeatID:         beat.ID,
		LicenseType:    license,
		SignatureText:  buyer.Name,
		PaymentMethod:  models.PaymentMethodCard,
		PaymentDetails: map[string]string{"card_number": "4242424242424242"},
	}
}

// recorder collects published events.
type recorder struct {
	events chan services.Event
}

func record(bus *services.EventBus) *recorder {
	r := &recorder{events: make(chan services.Event, 64)}
	bus.Subscribe(func(e services.Event) { r.events <- e })
	return r
}

func (r *recorder) types() []services.EventType {
	var out []services.EventType
	for {
		select {
		case e := <-r.events:
			out = append(out, e.Type)
		default:
			return out
		}
	}
}
