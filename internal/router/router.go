// Package router assembles the HTTP surface of the cashbook API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"cashbook/internal/classification"
	"cashbook/internal/config"
	_ "cashbook/internal/docs" // Import swagger docs
	"cashbook/internal/handlers"
	"cashbook/internal/middleware"
	"cashbook/internal/services"
	"cashbook/internal/validator"
)

// Option customizes the engine built by New.
type Option func(*options)

type options struct {
	classifierOpts []classification.Option
	requestLogging bool
}

// WithClassifierOptions forwards options to the movement classification validator.
func WithClassifierOptions(opts ...classification.Option) Option {
	return func(o *options) { o.classifierOpts = append(o.classifierOpts, opts...) }
}

// WithoutRequestLogging skips the per-request log line.
func WithoutRequestLogging() Option {
	return func(o *options) { o.requestLogging = false }
}

// New wires services, handlers and middleware over db.
func New(cfg *config.Config, db *gorm.DB, opts ...Option) *gin.Engine {
	o := &options{requestLogging: true}
	for _, opt := range opts {
		opt(o)
	}

	validator.Register()

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	catalogService := services.NewCatalogService(db)
	reportService := services.NewReportService(db)
	movementService := services.NewMovementService(db, classification.NewValidator(o.classifierOpts...), catalogService, reportService)
	syncService := services.NewSyncService(db, catalogService)
	dedupeService := services.NewDedupeService(db)

	// Handlers
	profileHandler := handlers.NewProfileHandler(userService)
	movementHandler := handlers.NewMovementHandler(movementService, reportService, auditService, cfg.Timezone)
	catalogHandler := handlers.NewCatalogHandler(catalogService, auditService)
	syncHandler := handlers.NewSyncHandler(syncService)
	maintenanceHandler := handlers.NewMaintenanceHandler(dedupeService)

	router := gin.New()
	router.Use(gin.Recovery())
	if o.requestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Operator routes
	maintenance := v1.Group("/maintenance")
	maintenance.Use(middleware.ServiceKeyMiddleware(cfg.ServiceAPIKey))
	maintenance.GET("/duplicates", maintenanceHandler.ListDuplicates)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg), middleware.UserSync(userService))

	protected.GET("/profile", profileHandler.GetProfile)

	movements := protected.Group("/movements")
	movements.POST("", movementHandler.CreateMovement)
	movements.POST("/validate", movementHandler.ValidateMovement)
	movements.POST("/from-catalog/:entryId", movementHandler.CreateMovementFromCatalogEntry)
	movements.GET("", movementHandler.ListMovements)
	movements.GET("/summary", movementHandler.GetSummary)
	movements.GET("/breakdown", movementHandler.GetBreakdowns)
	movements.GET("/export", movementHandler.ExportMovements)
	movements.GET("/:id", movementHandler.GetMovement)
	movements.PATCH("/:id", movementHandler.UpdateMovement)
	movements.DELETE("/:id", movementHandler.DeleteMovement)

	catalog := protected.Group("/catalog")
	catalog.POST("", catalogHandler.CreateEntry)
	catalog.GET("", catalogHandler.ListEntries)
	catalog.GET("/summary", catalogHandler.GetSummary)
	catalog.GET("/:id", catalogHandler.GetEntry)
	catalog.PATCH("/:id", catalogHandler.UpdateEntry)
	catalog.PATCH("/:id/status", catalogHandler.ChangeStatus)
	catalog.POST("/:id/archive", catalogHandler.ArchiveEntry)

	sync := protected.Group("/sync")
	sync.GET("/mapping", syncHandler.GetMapping)
	sync.GET("/cost-types/:costType/entries", syncHandler.SuggestEntries)
	sync.GET("/entries/:id/cost-type", syncHandler.SuggestCostType)
	sync.GET("/search", syncHandler.Search)
	sync.GET("/statistics", syncHandler.GetStatistics)

	return router
}
