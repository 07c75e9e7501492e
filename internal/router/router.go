// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/beatmarket/internal/config"
	"github.com/javajoker/beatmarket/internal/handlers"
	"github.com/javajoker/beatmarket/internal/i18n"
	"github.com/javajoker/beatmarket/internal/metrics"
	"github.com/javajoker/beatmarket/internal/middleware"
	"github.com/javajoker/beatmarket/internal/repository"
	"github.com/javajoker/beatmarket/internal/services"
	"github.com/javajoker/beatmarket/internal/utils"
)

// Dependencies are the collaborators the core is wired with. Zero fields are
// filled from configuration by Initialize.
type Dependencies struct {
	Gateway  services.PaymentGateway
	Assets   services.AssetStore
	Currency *services.CurrencyService
	Metrics  *metrics.Metrics
	Events   *services.EventBus
}

// Initialize builds the production collaborators from cfg and wires the router.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	deps := Dependencies{}

	currency, err := services.LoadCurrencyService(cfg.Currency.TablePath, cfg.Currency.DefaultCountry)
	if err != nil {
		return nil, fmt.Errorf("failed to load currency table: %w", err)
	}
	deps.Currency = currency

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	deps.Assets = storageService

	if cfg.Payment.StripeSecretKey != "" {
		deps.Gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey)
		logrus.Info("Payments processed by Stripe")
	} else {
		deps.Gateway = services.NewSimulatedGateway()
		logrus.Warn("STRIPE_SECRET_KEY not set, using the simulated payment gateway")
	}

	return New(db, cfg, deps), nil
}

func New(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Currency == nil {
		deps.Currency = services.NewCurrencyService(services.DefaultCurrencyTable(), cfg.Currency.DefaultCountry)
	}
	if deps.Gateway == nil {
		deps.Gateway = services.NewSimulatedGateway()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Events == nil {
		deps.Events = services.NewEventBus()
		deps.Events.Subscribe(services.LogSubscriber)
	}

	// Initialize services
	store := repository.NewGormStore(db)
	locks := repository.NewKeyedLocker()

	generator := services.NewContractGenerator(deps.Currency)
	beatService := services.NewBeatService(store, locks, deps.Assets, deps.Events)
	splitService := services.NewSplitService(store, locks, deps.Events)
	ratingService := services.NewRatingService(store, locks, deps.Events, deps.Metrics)
	purchaseService := services.NewPurchaseService(store, locks, deps.Gateway, generator, deps.Currency, deps.Events, deps.Metrics, cfg.Marketplace.Name)
	earningsService := services.NewEarningsService(store, locks, deps.Events, deps.Metrics, cfg.Payment.MinimumPayout)

	// Initialize handlers
	beatHandler := handlers.NewBeatHandler(beatService, splitService, ratingService, deps.Currency)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	earningsHandler := handlers.NewEarningsHandler(earningsService, deps.Currency)
	currencyHandler := handlers.NewCurrencyHandler(deps.Currency)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestMetrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"version":     "1.0.0",
			"marketplace": cfg.Marketplace.Name,
			"languages":   i18n.GetSupportedLanguages(),
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	v1 := r.Group("/v1")
	{
		beats := v1.Group("/beats")
		{
			beats.GET("", beatHandler.SearchBeats)
			beats.GET("/:id", beatHandler.GetBeat)
			beats.GET("/:id/contributors/remaining", beatHandler.RemainingShare)

			protected := beats.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", beatHandler.CreateBeat)
				protected.POST("/assets", limiters.Upload.Middleware(), beatHandler.UploadAsset)
				protected.PUT("/:id/pricing", beatHandler.UpdatePricing)
				protected.DELETE("/:id", beatHandler.ArchiveBeat)
				protected.POST("/:id/contributors", beatHandler.AddContributor)
				protected.DELETE("/:id/contributors/:contributor_id", beatHandler.RemoveContributor)
				protected.POST("/:id/rating", beatHandler.Rate)
				protected.POST("/:id/favorite", beatHandler.ToggleFavorite)
			}
		}

		v1.GET("/producers/:id/stats", earningsHandler.GetProducerStats)

		me := v1.Group("/me")
		me.Use(middleware.AuthRequired())
		{
			me.GET("/beats", beatHandler.ListMyBeats)
			me.GET("/favorites", beatHandler.ListFavorites)
			me.GET("/licenses", purchaseHandler.ListOwnedBeats)
		}

		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired(), limiters.Commerce.Middleware())
		{
			purchases.POST("", purchaseHandler.Purchase)
		}

		contracts := v1.Group("/contracts")
		contracts.Use(middleware.AuthRequired())
		{
			contracts.GET("", purchaseHandler.ListContracts)
			contracts.GET("/:id", purchaseHandler.GetContract)
			contracts.GET("/:id/download", purchaseHandler.DownloadContract)
			contracts.GET("/:id/verify", purchaseHandler.VerifyContract)
		}

		earnings := v1.Group("/earnings")
		earnings.Use(middleware.AuthRequired())
		{
			earnings.GET("", earningsHandler.GetSummary)
			earnings.GET("/breakdown", earningsHandler.GetBreakdown)
			earnings.GET("/balance", earningsHandler.GetBalance)
			earnings.GET("/sales", earningsHandler.GetSales)
			earnings.GET("/beats/:id", earningsHandler.GetBeatEarnings)
		}

		withdrawals := v1.Group("/withdrawals")
		withdrawals.Use(middleware.AuthRequired())
		{
			withdrawals.GET("", earningsHandler.ListWithdrawals)
			withdrawals.POST("", limiters.Commerce.Middleware(), earningsHandler.RequestWithdrawal)
		}

		currencies := v1.Group("/currencies")
		{
			currencies.GET("", currencyHandler.ListCurrencies)
			currencies.GET("/format", currencyHandler.FormatAmount)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.PUT("/withdrawals/:id", earningsHandler.SettleWithdrawal)
		}
	}

	// Static file serving for locally stored uploads
	if cfg.AWS.AccessKeyID == "" && cfg.Storage.LocalPath != "" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	return r
}
