package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noventis/certtrack-api/api/swagger"
	"github.com/noventis/certtrack-api/internal/handler"
	"github.com/noventis/certtrack-api/internal/middleware"
	"github.com/noventis/certtrack-api/internal/models"
	"github.com/noventis/certtrack-api/internal/repository"
	"github.com/noventis/certtrack-api/internal/service"
	"github.com/noventis/certtrack-api/pkg/cache"
	"github.com/noventis/certtrack-api/pkg/config"
	"github.com/noventis/certtrack-api/pkg/database"
	"github.com/noventis/certtrack-api/pkg/jobs"
	"github.com/noventis/certtrack-api/pkg/logger"
	corsmiddleware "github.com/noventis/certtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noventis/certtrack-api/pkg/middleware/requestid"
)

// @title CertTrack API
// @version 1.0.0
// @description Certificate hierarchy and compliance rules engine
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	licenseRepo := repository.NewLicenseRepository(db)
	prerequisiteRepo := repository.NewPrerequisiteRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	exemptionRepo := repository.NewExemptionRepository(db)
	templateRepo := repository.NewExemptionTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	catalogService := service.NewCatalogService(licenseRepo, prerequisiteRepo, cacheService, nil, logr, cfg.Catalog.CacheTTL)
	eligibilityService := service.NewEligibilityService(catalogService, ledgerRepo, employeeRepo, nil, logr, cfg.Training.MaxLevel)
	ledgerService := service.NewLedgerService(ledgerRepo, catalogService, employeeRepo, nil, logr)
	employeeService := service.NewEmployeeService(employeeRepo, logr)
	exemptionService := service.NewExemptionService(employeeRepo, exemptionRepo, templateRepo, catalogService, metricsService, nil, logr, cfg.Exemptions.PreviewLimit, cfg.Exemptions.Enabled)
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "certtrack-api",
	})
	userService := service.NewUserService(userRepo, nil, logr)

	// Background worker for auto-exemption rule runs.
	ruleQueue := jobs.NewQueue("exemption-rules", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.RuleRunPayload)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		_, err := exemptionService.RunRule(ctx, payload.RuleID, payload.ActorID)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Exemptions.WorkerConcurrency,
		MaxRetries: cfg.Exemptions.WorkerRetries,
		Logger:     logr,
	})
	exemptionService.AttachRuleQueue(ruleQueue)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ruleQueue.Start(rootCtx)
	defer ruleQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilityService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	employeeHandler := handler.NewEmployeeHandler(employeeService)
	exemptionHandler := handler.NewExemptionHandler(exemptionService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	readers := middleware.RequireRoles(models.RoleAdmin, models.RoleComplianceOfficer, models.RoleViewer)
	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleComplianceOfficer)
	admins := middleware.RequireRoles(models.RoleAdmin)

	users := authed.Group("/users")
	{
		users.GET("", admins, userHandler.List)
		users.GET("/:id", admins, userHandler.Get)
		users.POST("", admins, userHandler.Create)
		users.PUT("/:id", admins, userHandler.Update)
		users.DELETE("/:id", admins, userHandler.Delete)
	}

	licenses := authed.Group("/licenses")
	{
		licenses.GET("", readers, catalogHandler.List)
		licenses.GET("/graph", readers, catalogHandler.Graph)
		licenses.GET("/:id", readers, catalogHandler.Get)
		licenses.POST("", writers, middleware.Audit(userRepo, models.AuditActionLicenseCreate, "license"), catalogHandler.Create)
		licenses.PUT("/:id", writers, middleware.Audit(userRepo, models.AuditActionLicenseUpdate, "license"), catalogHandler.Update)
		licenses.DELETE("/:id", writers, middleware.Audit(userRepo, models.AuditActionLicenseDelete, "license"), catalogHandler.Delete)
		licenses.GET("/:id/prerequisites", readers, catalogHandler.ListPrerequisites)
		licenses.POST("/:id/prerequisites", writers, middleware.Audit(userRepo, models.AuditActionPrerequisiteAdd, "prerequisite"), catalogHandler.AddPrerequisite)
		licenses.DELETE("/:id/prerequisites/:prerequisiteId", writers, middleware.Audit(userRepo, models.AuditActionPrerequisiteDrop, "prerequisite"), catalogHandler.RemovePrerequisite)
	}

	employees := authed.Group("/employees")
	{
		employees.GET("", readers, employeeHandler.List)
		employees.GET("/:id", readers, employeeHandler.Get)
		employees.GET("/:id/ledger", readers, ledgerHandler.ListForEmployee)
		employees.GET("/:id/exemptions", readers, exemptionHandler.ListForEmployee)
		employees.GET("/:id/licenses/:licenseId/training-levels", readers, eligibilityHandler.TrainingLevels)
	}

	ledger := authed.Group("/ledger")
	{
		ledger.POST("", writers, middleware.Audit(userRepo, models.AuditActionLedgerCreate, "ledger"), ledgerHandler.Create)
		ledger.GET("/:id", readers, ledgerHandler.Get)
		ledger.PUT("/:id/reassess", writers, middleware.Audit(userRepo, models.AuditActionLedgerReassess, "ledger"), ledgerHandler.Reassess)
		ledger.PUT("/:id/status", writers, ledgerHandler.UpdateStatus)
	}

	eligibility := authed.Group("/eligibility")
	{
		eligibility.POST("/enrollment", readers, eligibilityHandler.CheckEnrollment)
		eligibility.POST("/renewal", readers, eligibilityHandler.CheckRenewal)
	}

	exemptions := authed.Group("/exemptions")
	{
		exemptions.POST("/preview", writers, exemptionHandler.Preview)
		exemptions.POST("/execute", writers, middleware.Audit(userRepo, models.AuditActionMassExemption, "exemption"), exemptionHandler.Execute)
		exemptions.GET("/operations", readers, exemptionHandler.ListOperations)
		exemptions.GET("/operations/:id", readers, exemptionHandler.GetOperation)
		exemptions.DELETE("/:id", writers, exemptionHandler.Revoke)
	}

	templates := authed.Group("/exemption-templates")
	{
		templates.GET("", readers, exemptionHandler.ListTemplates)
		templates.GET("/:id", readers, exemptionHandler.GetTemplate)
		templates.POST("", writers, exemptionHandler.CreateTemplate)
		templates.PUT("/:id", writers, exemptionHandler.UpdateTemplate)
		templates.DELETE("/:id", writers, exemptionHandler.DeleteTemplate)
	}

	rules := authed.Group("/exemption-rules")
	{
		rules.GET("", readers, exemptionHandler.ListRules)
		rules.GET("/:id", readers, exemptionHandler.GetRule)
		rules.POST("", writers, exemptionHandler.CreateRule)
		rules.PUT("/:id", writers, exemptionHandler.UpdateRule)
		rules.DELETE("/:id", writers, exemptionHandler.DeleteRule)
		rules.POST("/:id/run", writers, middleware.Audit(userRepo, models.AuditActionRuleRun, "exemption_rule"), exemptionHandler.RunRule)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
