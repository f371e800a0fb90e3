package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/scolaris/scolaris-api/api/swagger"
	"github.com/scolaris/scolaris-api/internal/handler"
	"github.com/scolaris/scolaris-api/internal/middleware"
	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/repository"
	"github.com/scolaris/scolaris-api/internal/service"
	"github.com/scolaris/scolaris-api/pkg/cache"
	"github.com/scolaris/scolaris-api/pkg/config"
	"github.com/scolaris/scolaris-api/pkg/database"
	"github.com/scolaris/scolaris-api/pkg/logger"
	corsmiddleware "github.com/scolaris/scolaris-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scolaris/scolaris-api/pkg/middleware/requestid"
	"github.com/scolaris/scolaris-api/pkg/storage"
)

// @title Scolaris API
// @version 1.0.0
// @description School administration API: sessions, paliers, classes, enrollments and roster exports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	palierRepo := repository.NewPalierRepository(db)
	classRepo := repository.NewClassRepository(db)
	classSessionRepo := repository.NewClassSessionRepository(db)
	inscriptionRepo := repository.NewInscriptionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	sessionSvc := service.NewSessionService(sessionRepo, cacheSvc, validate, logr)
	palierSvc := service.NewPalierService(palierRepo, sessionRepo, metricsSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	classSessionSvc := service.NewClassSessionService(classSessionRepo, classRepo, sessionRepo, validate, logr)
	inscriptionSvc := service.NewInscriptionService(inscriptionRepo, classSessionRepo, studentRepo, metricsSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(inscriptionRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			Workers:   cfg.Exports.WorkerConcurrency,
		}, logr, nil, nil)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	palierHandler := handler.NewPalierHandler(palierSvc)
	classHandler := handler.NewClassHandler(classSvc)
	classSessionHandler := handler.NewClassSessionHandler(classSessionSvc)
	inscriptionHandler := handler.NewInscriptionHandler(inscriptionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	staffOrAdmin := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	sessions := secured.Group("/sessions")
	{
		sessions.GET("", sessionHandler.List)
		sessions.GET("/in-progress", sessionHandler.GetInProgress)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.GET("/:id/paliers", palierHandler.ListBySession)
		sessions.POST("", staffOrAdmin, sessionHandler.Create)
		sessions.PUT("/:id", staffOrAdmin, sessionHandler.Update)
		sessions.PUT("/:id/in-progress", adminOnly, sessionHandler.SetInProgress)
		sessions.DELETE("/:id", adminOnly, sessionHandler.Delete)
	}

	paliers := secured.Group("/paliers")
	{
		paliers.GET("", palierHandler.List)
		paliers.GET("/:id", palierHandler.Get)
		paliers.POST("", staffOrAdmin, palierHandler.Create)
		paliers.PUT("/:id", staffOrAdmin, palierHandler.Update)
		paliers.DELETE("/:id", adminOnly, palierHandler.Delete)
	}

	classes := secured.Group("/classes")
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", staffOrAdmin, classHandler.Create)
		classes.PUT("/:id", staffOrAdmin, classHandler.Update)
		classes.DELETE("/:id", adminOnly, classHandler.Delete)
	}

	classSessions := secured.Group("/class-sessions")
	{
		classSessions.GET("", classSessionHandler.List)
		classSessions.GET("/:id", classSessionHandler.Get)
		classSessions.GET("/:id/occupancy", classSessionHandler.Occupancy)
		classSessions.GET("/:id/seats", classSessionHandler.SeatGrid)
		classSessions.POST("", staffOrAdmin, classSessionHandler.Create)
		classSessions.PUT("/:id/capacity", staffOrAdmin, classSessionHandler.UpdateCapacity)
		classSessions.DELETE("/:id", adminOnly, classSessionHandler.Delete)
	}

	inscriptions := secured.Group("/inscriptions")
	{
		inscriptions.GET("", inscriptionHandler.List)
		inscriptions.GET("/:id", inscriptionHandler.Get)
		inscriptions.POST("", staffOrAdmin, inscriptionHandler.Create)
		inscriptions.PUT("/:id", staffOrAdmin, inscriptionHandler.Update)
		inscriptions.PUT("/:id/status", staffOrAdmin, inscriptionHandler.UpdateStatus)
		inscriptions.DELETE("/:id", adminOnly, inscriptionHandler.Delete)
	}

	students := secured.Group("/students")
	{
		students.GET("", studentHandler.List)
		students.GET("/:id", studentHandler.Get)
		students.POST("", staffOrAdmin, studentHandler.Create)
		students.PUT("/:id", staffOrAdmin, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Deactivate)
	}

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		exports := secured.Group("/exports")
		{
			exports.POST("/roster", staffOrAdmin, exportHandler.Enqueue)
			exports.GET("/:id", staffOrAdmin, exportHandler.Job)
		}
		// Downloads authenticate via the signed token, not JWT.
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
