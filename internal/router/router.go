package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/handler"
	"github.com/quantprep/backend/internal/middleware"
	"github.com/quantprep/backend/internal/model"
	"github.com/quantprep/backend/internal/response"
	"github.com/quantprep/backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Exam      *handler.ExamHandler
	Dashboard *handler.DashboardHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Serve question images statically with aggressive caching (1 year).
	imagesGroup := router.Group("/images")
	imagesGroup.Use(middleware.CacheControl(31536000))
	{
		imagesGroup.Static("/", cfg.ImageDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Public catalog and pricing surface. Question content is stripped of
	// answers, so no auth is needed to browse.
	public := router.Group("/api/v1")
	{
		public.GET("/questions", handlers.Catalog.Browse)
		public.GET("/questions/meta", handlers.Catalog.Meta)
		public.GET("/pricing", handlers.Catalog.Pricing)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// Exam session lifecycle. Every route is account-scoped.
	exams := router.Group("/api/v1/exams")
	exams.Use(middleware.RequireJWT(authService))
	{
		exams.POST("/practice", handlers.Exam.StartPractice)
		exams.POST("/mock",
			middleware.RequireFeature(model.FeatureMockExam),
			handlers.Exam.StartMock,
		)
		exams.POST("/:sessionID/answer", handlers.Exam.SelectAnswer)
		exams.POST("/:sessionID/flag", handlers.Exam.ToggleFlag)
		exams.POST("/:sessionID/navigate", handlers.Exam.Navigate)
		exams.POST("/:sessionID/submit", handlers.Exam.Submit)
		exams.GET("/:sessionID/state", handlers.Exam.State)
		exams.GET("/:sessionID/results", handlers.Exam.Results)
	}

	// Performance dashboard. Analytics views are premium-gated.
	dashboard := router.Group("/api/v1/dashboard")
	dashboard.Use(middleware.RequireJWT(authService))
	{
		dashboard.GET("/history", handlers.Dashboard.History)
		dashboard.GET("/summary", handlers.Dashboard.Summary)
		dashboard.GET("/categories", handlers.Dashboard.Categories)
		dashboard.GET("/weak-areas",
			middleware.RequireFeature(model.FeatureAIAnalytics),
			handlers.Dashboard.WeakAreas,
		)
		dashboard.GET("/wrong-questions",
			middleware.RequireFeature(model.FeatureAIAnalytics),
			handlers.Dashboard.WrongQuestions,
		)
	}

	// WebSocket countdown stream, authenticated via query token.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/:sessionID/stream", handlers.WS.SessionStream)
	}

	return router
}
