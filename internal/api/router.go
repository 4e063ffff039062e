// Package api assembles the HTTP surface of versewise.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codyseavey/versewise/internal/api/handlers"
	"github.com/codyseavey/versewise/internal/metrics"
	"github.com/codyseavey/versewise/internal/middleware"
	"github.com/codyseavey/versewise/internal/services"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Translator  *services.HybridTranslationService
	History     *services.ReadingHistoryService
	Exercises   *services.VocabularyExerciseService
	Maintenance *services.CacheMaintenanceWorker // optional
	Auth        *middleware.AdminAuth
	RateLimiter *middleware.RateLimiter // optional
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auth := cfg.Auth
	if auth == nil {
		auth = middleware.NewAdminAuth("")
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(metrics.HTTPMetrics())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/health", handlers.Health(cfg.Translator))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	translateHandler := handlers.NewTranslateHandler(cfg.Translator, cfg.Translator.Policy().SourceLanguage)
	historyHandler := handlers.NewHistoryHandler(cfg.History)
	exerciseHandler := handlers.NewExerciseHandler(cfg.Exercises)

	var maintenance handlers.MaintenanceStatus
	if cfg.Maintenance != nil {
		maintenance = cfg.Maintenance
	}
	adminHandler := handlers.NewAdminHandler(cfg.Translator, maintenance)

	api := router.Group("/api")
	{
		translate := api.Group("/translate")
		if cfg.RateLimiter != nil {
			translate.Use(cfg.RateLimiter.Middleware())
		}
		translate.POST("", translateHandler.Translate)
		translate.POST("/batch", translateHandler.TranslateBatch)
		translate.GET("/languages", translateHandler.Languages)

		api.GET("/history", historyHandler.List)
		api.POST("/history", historyHandler.Append)
		api.DELETE("/history", historyHandler.Clear)
		api.GET("/history/stats", historyHandler.Stats)

		api.GET("/exercises", exerciseHandler.Generate)

		api.GET("/auth/status", auth.Status)
		api.POST("/auth/verify", auth.Verify)

		admin := api.Group("/admin", auth.Require())
		admin.GET("/cache/stats", adminHandler.CacheStats)
		admin.DELETE("/cache", adminHandler.ClearCache)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
