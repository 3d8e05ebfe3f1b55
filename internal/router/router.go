// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/config"
	"github.com/printforge/printforge-backend/internal/events"
	"github.com/printforge/printforge-backend/internal/handlers"
	"github.com/printforge/printforge-backend/internal/middleware"
	"github.com/printforge/printforge-backend/internal/repository"
	"github.com/printforge/printforge-backend/internal/services"
	"github.com/printforge/printforge-backend/internal/utils"
)

func Initialize(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *gin.Engine {
	// Event publisher: Redis when available, no-op otherwise
	var publisher events.Publisher = events.NopPublisher{}
	if redisClient != nil {
		publisher = events.NewRedisPublisher(redisClient, cfg.Redis.EventChannel)
	}

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	productLookup := repository.NewProductLookup(db)
	userLookup := repository.NewUserLookup(db)

	// Initialize services
	customizationService := services.NewCustomizationService(requestRepo, productLookup, userLookup, publisher)
	authService := services.NewAuthService(db, cfg)
	paymentService := services.NewPaymentService(customizationService, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage service")
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	customizationHandler := handlers.NewCustomizationHandler(customizationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	uploadHandler := handlers.NewUploadHandler(storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Customization request routes
		customizations := v1.Group("/customizations")
		customizations.Use(middleware.AuthRequired())
		{
			customizations.POST("", customizationHandler.CreateRequest)
			customizations.GET("", customizationHandler.SearchRequests)
			customizations.GET("/mine", customizationHandler.GetMyRequests)
			customizations.GET("/assigned", middleware.DesignerRequired(), customizationHandler.GetAssignedRequests)
			customizations.GET("/pending", middleware.DesignerRequired(), customizationHandler.GetPendingRequests)
			customizations.GET("/statistics", middleware.AdminRequired(), customizationHandler.GetStatistics)

			customizations.GET("/:id", customizationHandler.GetRequest)
			customizations.GET("/:id/details", customizationHandler.GetRequestDetails)
			customizations.POST("/:id/claim", middleware.DesignerRequired(), customizationHandler.ClaimRequest)
			customizations.POST("/:id/design", middleware.DesignerRequired(), middleware.UploadRateLimit(), customizationHandler.UploadFinalDesign)
			customizations.POST("/:id/approve", customizationHandler.ApproveDesign)
			customizations.POST("/:id/reject", customizationHandler.RejectDesign)
			customizations.POST("/:id/cancel", customizationHandler.CancelRequest)

			// Pricing lifecycle
			customizations.POST("/:id/pricing", middleware.DesignerRequired(), customizationHandler.ProposePricing)
			customizations.POST("/:id/pricing/accept", customizationHandler.AcceptPricing)
			customizations.POST("/:id/pricing/reject", customizationHandler.RejectPricing)

			// Order/payment bridge path (trusted callers only)
			customizations.POST("/:id/order", middleware.AdminRequired(), customizationHandler.LinkOrder)
			customizations.POST("/:id/payments", middleware.AdminRequired(), customizationHandler.RecordPayment)
			customizations.POST("/:id/payments/refund", middleware.AdminRequired(), paymentHandler.RefundDesignFee)
			customizations.POST("/:id/fulfilment", middleware.AdminRequired(), customizationHandler.AdvanceFulfilment)
		}

		// Designer workload routes
		designers := v1.Group("/designers")
		designers.Use(middleware.AuthRequired())
		{
			designers.GET("/workload", customizationHandler.GetAllDesignersWorkload)
			designers.GET("/:id/workload", customizationHandler.GetDesignerWorkload)
		}

		// Design asset uploads
		uploads := v1.Group("/uploads")
		uploads.Use(middleware.AuthRequired())
		{
			uploads.POST("", middleware.UploadRateLimit(), uploadHandler.UploadFile)
			uploads.GET("/presign", middleware.DesignerRequired(), uploadHandler.GetDownloadURL)
		}

		// Payment routes (Stripe design fees)
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intents", paymentHandler.CreateDesignFeeIntent)
			payments.POST("/confirm", paymentHandler.ConfirmDesignFeePayment)
		}
	}

	return r
}
