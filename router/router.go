package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rogpool/pool-service-api/config"
	"github.com/rogpool/pool-service-api/controllers"
	"github.com/rogpool/pool-service-api/middleware"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/store"
)

// Options carries everything the HTTP server is built from
type Options struct {
	Config    *config.Config
	Store     store.Store
	Redis     *redis.Client           // nil disables login throttling
	S3        services.S3Interface    // nil disables media endpoints
	Publisher services.EventPublisher // nil publishes nothing
	Now       func() time.Time        // nil means time.Now
}

// New wires services and controllers and returns the gin engine
func New(opts Options) *gin.Engine {
	cfg := opts.Config
	switch {
	case cfg.IsTest():
		gin.SetMode(gin.TestMode)
	case cfg.IsDevelopment() || cfg.DebugLogging():
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, opts.Now)
	users := services.NewUserService(opts.Store, tokens, cfg.BcryptCost)
	if cfg.AllowDegraded {
		users.EnableDegradedMode()
	}
	clients := services.NewClientService(opts.Store, opts.Store)
	importer := services.NewImportService(clients, opts.Store)
	media := services.NewMediaService(opts.S3)
	reports := services.NewReportService(opts.Store, opts.Store, opts.Publisher, media, opts.Now)

	authController := controllers.NewAuthController(users)
	userController := controllers.NewUserController(users, cfg.AllowDegraded)
	clientController := controllers.NewClientController(clients, importer, cfg.AllowDegraded)
	reportController := controllers.NewReportController(reports, cfg.AllowDegraded)
	mediaController := controllers.NewMediaController(media)
	healthController := controllers.NewHealthController(opts.Store, opts.Redis)

	router := gin.New()
	if !cfg.IsTest() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", "Retry-After"},
		MaxAge:          12 * time.Hour,
	}))
	router.MaxMultipartMemory = 10 << 20

	requireAuth := middleware.RequireAuth(users)
	adminOnly := middleware.RequireRole(models.RoleAdministrator)

	api := router.Group("/api")
	{
		api.GET("/", healthController.Root)
		api.GET("/health", healthController.Health)

		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.LoginRateLimit(opts.Redis, cfg.LoginRateLimit, cfg.LoginRateWindow), authController.Login)
			auth.GET("/me", requireAuth, authController.Me)
		}

		clientsGroup := api.Group("/clients", requireAuth)
		{
			clientsGroup.GET("", clientController.ListClients)
			clientsGroup.GET("/all", adminOnly, clientController.ListAllClients)
			clientsGroup.POST("", adminOnly, clientController.CreateClient)
			clientsGroup.POST("/import-excel", adminOnly, clientController.ImportExcel)
			clientsGroup.DELETE("/:id", adminOnly, clientController.DeleteClient)
		}

		reportsGroup := api.Group("/reports", requireAuth)
		{
			reportsGroup.GET("", reportController.ListReports)
			reportsGroup.GET("/:id", reportController.GetReport)
			reportsGroup.POST("", reportController.CreateReport)
			reportsGroup.PUT("/:id", reportController.UpdateReport)
			reportsGroup.DELETE("/:id", adminOnly, reportController.DeleteReport)
		}

		usersGroup := api.Group("/users", requireAuth, adminOnly)
		{
			usersGroup.GET("", userController.ListUsers)
			usersGroup.POST("", userController.CreateUser)
			usersGroup.DELETE("/:id", userController.DeleteUser)
		}

		// Image tags cannot send bearer tokens; keys are unguessable
		api.GET("/media/*key", mediaController.GetMedia)
		api.POST("/media", requireAuth, mediaController.UploadMedia)
	}

	router.NoRoute(controllers.SPAFallback(cfg.StaticDir))

	return router
}
