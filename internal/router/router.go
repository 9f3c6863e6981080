package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/handler"
	"github.com/zulumai/exam-portal/internal/middleware"
	"github.com/zulumai/exam-portal/internal/response"
	"github.com/zulumai/exam-portal/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Portal  *handler.PortalHandler
	Payment *handler.PaymentHandler
	Admin   *handler.AdminHandler
	Stream  *handler.StreamHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded profile images statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Portal Group (JWT + Single Device) ─────────────────
	portalAPI := router.Group("/api/v1/portal")
	portalAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		portalAPI.POST("/exam/start", handlers.Portal.StartExam)
		portalAPI.GET("/exam/session", handlers.Portal.GetSession)
		portalAPI.POST("/exam/answer", handlers.Portal.Answer)
		portalAPI.POST("/exam/key", handlers.Portal.Key)
		portalAPI.POST("/exam/navigate", handlers.Portal.Navigate)
		portalAPI.POST("/exam/submit", handlers.Portal.Submit)
		portalAPI.GET("/exam/summary", handlers.Portal.Summary)

		portalAPI.GET("/results", handlers.Portal.Results)

		portalAPI.POST("/payments", handlers.Payment.Submit)
		portalAPI.GET("/payments", handlers.Payment.History)
		portalAPI.GET("/payments/status", handlers.Payment.Status)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/portal/exam/stream", handlers.Stream.ExamStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Account management
		adminAPI.GET("/users", handlers.Admin.ListUsers)
		adminAPI.POST("/users", handlers.Admin.CreateUser)
		adminAPI.DELETE("/users/:id", handlers.Admin.DeleteUser)
		adminAPI.POST("/users/:id/reset-exam", handlers.Admin.ResetExam)

		// Results ledger
		adminAPI.GET("/results", handlers.Admin.ListResults)

		// Payment review
		adminAPI.GET("/payments", handlers.Payment.ListAll)
		adminAPI.GET("/payments/pending", handlers.Payment.ListPending)
		adminAPI.POST("/payments/:id/confirm", handlers.Payment.Confirm)
		adminAPI.DELETE("/payments/:id", handlers.Payment.Reject)

		// App Settings Routes
		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Admin.GetSettings)
			settingsGroup.PUT("", handlers.Admin.UpdateSettings)
		}
	}

	return router
}
