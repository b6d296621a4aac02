package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/lautarok/yourstack/internal/config"
	"github.com/lautarok/yourstack/internal/handler"
	"github.com/lautarok/yourstack/internal/middleware"
	"github.com/lautarok/yourstack/internal/response"
)

// catalogueMaxAge is how long clients may cache exam listings and records.
const catalogueMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:       middleware.DefaultBrotliConfig.Quality,
		MinLength:     middleware.DefaultBrotliConfig.MinLength,
		ExcludedPaths: []string{"/health", "/ws/"},
	}))

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Health check.
	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Exam Catalogue ─────────────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.CacheControl(catalogueMaxAge))
	{
		exams.GET("", handlers.Exam.ListExams)
		exams.GET("/:exam_id", handlers.Exam.GetExam)
	}

	// ─── 2. Exam Sessions ──────────────────────────────────────────────
	// Starting a session loads a whole exam, so only creation is limited.
	sessionLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit, time.Minute)

	sessions := api.Group("/sessions")
	sessions.Use(middleware.NoStore())
	{
		sessions.POST("", sessionLimiter.Middleware(), handlers.Session.CreateSession)
		sessions.GET("/:session_id", handlers.Session.GetSession)
		sessions.DELETE("/:session_id", handlers.Session.LeaveSession)
		sessions.PUT("/:session_id/answers", handlers.Session.SelectAnswer)
		sessions.POST("/:session_id/next", handlers.Session.NextQuestion)
		sessions.POST("/:session_id/previous", handlers.Session.PreviousQuestion)
		sessions.POST("/:session_id/submit", handlers.Session.Submit)
		sessions.GET("/:session_id/result", handlers.Session.GetResult)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	wsGroup := router.Group("/ws/v1")
	{
		wsGroup.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
