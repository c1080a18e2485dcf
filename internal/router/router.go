package router

import (
	"time"

	"github.com/jmoris/STPark-sub000/internal/config"
	"github.com/jmoris/STPark-sub000/internal/handler"
	"github.com/jmoris/STPark-sub000/internal/infra"
	"github.com/jmoris/STPark-sub000/internal/middleware"
	"github.com/jmoris/STPark-sub000/internal/repository"
	"github.com/jmoris/STPark-sub000/internal/service"
	"github.com/jmoris/STPark-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New builds the HTTP engine: repositories, services, handlers and the
// middleware chain.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, pay *infra.PayProviderClient) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	pricingRepo := repository.NewPricingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	// Services
	quoteSvc := service.NewQuoteService(pricingRepo, rdb, time.Duration(cfg.TariffCacheTTLSec)*time.Second)
	sessionSvc := service.NewSessionService(sessionRepo, quoteSvc)
	checkoutSvc := service.NewCheckoutService(sessionRepo, paymentRepo, debtRepo, shiftRepo, quoteSvc, pay)
	debtSvc := service.NewDebtService(debtRepo, paymentRepo, shiftRepo)
	shiftSvc := service.NewShiftService(shiftRepo, dispatcher)

	// Handlers
	sessionH := handler.NewSessionHandler(sessionSvc, checkoutSvc)
	shiftH := handler.NewShiftHandler(shiftSvc)
	debtH := handler.NewDebtHandler(debtSvc)
	webhookH := handler.NewWebhookHandler(checkoutSvc, cfg.PayProviderSecret)
	healthH := handler.NewHealthHandler(db, rdb, pay)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.Tenant())
	r.Use(middleware.ErrorHandler())

	r.GET("/healthz", healthH.Live)
	r.GET("/readyz", healthH.Ready)

	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// The webhook authenticates by HMAC signature, not JWT, and is rate
	// limited since it faces the public internet.
	webhookLimiter := middleware.NewRateLimiter(60, time.Minute)
	r.POST("/webhooks/payments", webhookLimiter.Middleware(), webhookH.Payment)

	api := r.Group("/", middleware.JWTAuth(cfg.JWTSecret))
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionH.Create)
			sessions.GET("/active", sessionH.ActiveByPlate)
			sessions.GET("/:id", sessionH.Get)
			sessions.GET("/:id/quote", sessionH.Quote)
			sessions.POST("/:id/checkout", sessionH.Checkout)
			sessions.POST("/:id/charge", sessionH.Charge)
			sessions.POST("/:id/force-checkout-without-payment", sessionH.ForceCheckout)
			sessions.POST("/:id/cancel", sessionH.Cancel)
		}

		shifts := api.Group("/shifts")
		{
			shifts.POST("/open", shiftH.Open)
			shifts.GET("/current", shiftH.Current)
			shifts.GET("/:id", shiftH.Get)
			shifts.GET("/:id/operations", shiftH.Operations)
			shifts.POST("/:id/adjustment", shiftH.Adjustment)
			shifts.POST("/:id/close", shiftH.Close)
			shifts.POST("/:id/cancel", middleware.RequireRole("supervisor", "admin"), shiftH.Cancel)
		}

		debts := api.Group("/debts")
		{
			debts.GET("", debtH.ListByPlate)
			debts.POST("", middleware.RequireRole("supervisor", "admin"), debtH.Create)
			debts.GET("/:id", debtH.Get)
			debts.POST("/:id/settle", debtH.Settle)
		}
	}

	return r
}
