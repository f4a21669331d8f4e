package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openlearn/openlearn-api/api/swagger"
	"github.com/openlearn/openlearn-api/internal/handler"
	"github.com/openlearn/openlearn-api/internal/middleware"
	"github.com/openlearn/openlearn-api/internal/models"
	"github.com/openlearn/openlearn-api/internal/notify"
	"github.com/openlearn/openlearn-api/internal/repository"
	"github.com/openlearn/openlearn-api/internal/service"
	"github.com/openlearn/openlearn-api/pkg/cache"
	"github.com/openlearn/openlearn-api/pkg/config"
	"github.com/openlearn/openlearn-api/pkg/database"
	"github.com/openlearn/openlearn-api/pkg/export"
	"github.com/openlearn/openlearn-api/pkg/logger"
	corsmiddleware "github.com/openlearn/openlearn-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openlearn/openlearn-api/pkg/middleware/requestid"
)

// @title OpenLearn API
// @version 0.1.0
// @description Bulk material assignment service for the OpenLearn platform
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	materialRepo := repository.NewMaterialRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	dispatcher := notify.NewDispatcher(notify.NewRedisPublisher(redisClient), notify.Config{
		Workers: cfg.Bulk.NotifyWorkers,
		Buffer:  cfg.Bulk.NotifyBuffer,
		Channel: cfg.Bulk.NotifyChannel,
	}, logr)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	metricsSvc := service.NewMetricsService()
	limiter := service.NewRateLimiter(service.MaxBulkItems)
	bulkValidator := service.NewBulkValidator(materialRepo, studentRepo, classRepo, assignmentRepo, limiter, logr)
	executor := service.NewAssignmentExecutor(assignmentRepo, progressRepo, logr)
	recorder := service.NewAuditRecorder(auditRepo, logr)
	bulkSvc := service.NewBulkAssignmentService(db, bulkValidator, executor, recorder, dispatcher, metricsSvc, validate, logr)
	catalogSvc := service.NewCatalogService(materialRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	auditTrailSvc := service.NewAuditTrailService(auditRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	materialHandler := handler.NewMaterialHandler(catalogSvc)
	bulkHandler := handler.NewBulkAssignmentHandler(bulkSvc, auditTrailSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/materials", materialHandler.List)
	protected.GET("/materials/:id", materialHandler.Get)

	staff := middleware.RBAC(models.RoleAdmin, models.RoleTeacher)
	bulk := protected.Group("/bulk-assignments", staff)
	bulk.POST("/preflight", bulkHandler.Preflight)
	bulk.POST("/students", bulkHandler.AssignStudents)
	bulk.POST("/materials", bulkHandler.AssignMaterials)
	bulk.POST("/classes", bulkHandler.AssignClass)
	bulk.POST("/remove", bulkHandler.Remove)
	bulk.GET("/audits", bulkHandler.ListAudits)
	bulk.GET("/audits/:id", bulkHandler.GetAudit)
	if cfg.Exports.Enabled {
		bulk.GET("/audits/export", bulkHandler.ExportAudits)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
