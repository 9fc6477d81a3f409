package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pianoteacher/studio-api/api/swagger"
	"github.com/pianoteacher/studio-api/internal/handler"
	"github.com/pianoteacher/studio-api/internal/middleware"
	"github.com/pianoteacher/studio-api/internal/repository"
	"github.com/pianoteacher/studio-api/internal/service"
	"github.com/pianoteacher/studio-api/pkg/cache"
	"github.com/pianoteacher/studio-api/pkg/config"
	"github.com/pianoteacher/studio-api/pkg/database"
	"github.com/pianoteacher/studio-api/pkg/logger"
	corsmiddleware "github.com/pianoteacher/studio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pianoteacher/studio-api/pkg/middleware/requestid"
)

const version = "1.0.0"

// @title Piano Studio API
// @version 1.0.0
// @description Lesson scheduling and studio management for a private piano teacher
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional; the dashboard falls back to direct queries without it.
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	lessonRepo := repository.NewLessonRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	contentRepo := repository.NewLessonContentRepository(db)
	reportRepo := repository.NewProgressReportRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, studentRepo, validate, logr)
	suggestionSvc := service.NewSuggestionService(lessonRepo, studentRepo, logr)
	contentSvc := service.NewLessonContentService(contentRepo, studentRepo, validate, logr)
	reportSvc := service.NewProgressReportService(reportRepo, studentRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, lessonRepo, contentRepo, reportRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(lessonRepo, studentRepo, reportRepo, logr)

	healthHandler := handler.NewHealthHandler(db, version)
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc, suggestionSvc, metricsSvc)
	contentHandler := handler.NewLessonContentHandler(contentSvc)
	reportHandler := handler.NewProgressReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/students", studentHandler.List)
		protected.POST("/students", studentHandler.Create)
		protected.GET("/students/:id", studentHandler.Get)
		protected.PUT("/students/:id", studentHandler.Update)
		protected.DELETE("/students/:id", studentHandler.Deactivate)

		protected.GET("/lessons", lessonHandler.List)
		protected.POST("/lessons", lessonHandler.Create)
		protected.GET("/lessons/suggestions", lessonHandler.Suggestions)
		protected.GET("/lessons/stats", lessonHandler.Stats)
		protected.GET("/lessons/:id", lessonHandler.Get)
		protected.PUT("/lessons/:id", lessonHandler.Update)
		protected.PUT("/lessons/:id/reschedule", lessonHandler.Reschedule)
		protected.PUT("/lessons/:id/notes", lessonHandler.UpdateNotes)
		protected.DELETE("/lessons/:id", lessonHandler.Delete)

		protected.GET("/content", contentHandler.List)
		protected.POST("/content", contentHandler.Create)
		protected.GET("/content/stats", contentHandler.Stats)
		protected.GET("/content/:id", contentHandler.Get)
		protected.PUT("/content/:id", contentHandler.Update)
		protected.PUT("/content/:id/complete", contentHandler.Complete)
		protected.PUT("/content/:id/incomplete", contentHandler.Incomplete)
		protected.DELETE("/content/:id", contentHandler.Delete)

		protected.GET("/reports", reportHandler.List)
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/latest", reportHandler.Latest)
		protected.GET("/reports/:id", reportHandler.Get)
		protected.PUT("/reports/:id", reportHandler.Update)
		protected.DELETE("/reports/:id", reportHandler.Delete)

		if cfg.Dashboard.Enabled {
			protected.GET("/dashboard", dashboardHandler.Summary)
			protected.POST("/dashboard/refresh", dashboardHandler.Refresh)
		}
		if cfg.Exports.Enabled {
			protected.GET("/exports/lessons.csv", exportHandler.LessonsCSV)
			protected.GET("/exports/progress-reports.pdf", exportHandler.ProgressReportsPDF)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
