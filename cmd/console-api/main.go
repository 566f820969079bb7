package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/student-console-api/internal/dialog"
	"github.com/noah-isme/student-console-api/internal/handler"
	"github.com/noah-isme/student-console-api/internal/identity"
	"github.com/noah-isme/student-console-api/internal/middleware"
	"github.com/noah-isme/student-console-api/internal/repository"
	"github.com/noah-isme/student-console-api/internal/roster"
	"github.com/noah-isme/student-console-api/internal/service"
	"github.com/noah-isme/student-console-api/internal/session"
	"github.com/noah-isme/student-console-api/internal/store"
	"github.com/noah-isme/student-console-api/internal/validation"
	"github.com/noah-isme/student-console-api/pkg/cache"
	"github.com/noah-isme/student-console-api/pkg/config"
	"github.com/noah-isme/student-console-api/pkg/database"
	"github.com/noah-isme/student-console-api/pkg/export"
	"github.com/noah-isme/student-console-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-console-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-console-api/pkg/middleware/requestid"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// session cell: redis when reachable, in-process otherwise
	var cell session.Cell
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, using in-memory session cell", "error", err)
		cell = session.NewMemoryCell(nil)
	} else {
		cell = session.NewRedisCell(redisClient)
	}

	// audit trail is optional; a nil repo silently disables it
	auditSvc := service.NewAuditService(nil, logr)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(cfg.Audit)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect audit database", "error", err)
		}
		auditSvc = service.NewAuditService(repository.NewAuditRepository(db), logr)
	}

	var provider identity.Provider
	switch cfg.Identity.Mode {
	case config.IdentityModeStatic:
		provider, err = identity.NewStaticProvider(cfg.Identity.StaticUsers)
		if err != nil {
			logr.Sugar().Fatalw("invalid static identity config", "error", err)
		}
	default:
		provider = identity.NewHTTPProvider(cfg.Identity, logr)
	}

	metricsSvc := service.NewMetricsService()
	gateway := store.NewClient(cfg.Store, logr, metricsSvc)
	rosters := roster.NewRegistry(gateway, logr)
	dialogs := dialog.NewFactory(gateway, validation.New(nil), auditSvc, logr)

	authSvc := service.NewAuthService(provider, cell, validator.New(), auditSvc, logr, service.AuthConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	recordHandler := handler.NewRecordHandler(dialogs, rosters, logr)
	exportHandler := handler.NewExportHandler(rosters, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	auditHandler := handler.NewAuditHandler(auditSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	guarded := api.Group("", middleware.Guard(authSvc, cell, cfg.Session.SignInPath, logr))
	guarded.GET("/records", recordHandler.List)
	guarded.POST("/records", recordHandler.Create)
	guarded.GET("/records/:id", recordHandler.Get)
	guarded.PATCH("/records/:id", recordHandler.Update)
	guarded.DELETE("/records/:id", recordHandler.Delete)
	guarded.POST("/selection/:id", recordHandler.ToggleSelection)
	guarded.POST("/selection", recordHandler.SelectAll)
	guarded.DELETE("/selection", recordHandler.ClearSelection)
	if cfg.Export.Enabled {
		guarded.GET("/export", exportHandler.Export)
	}
	if auditSvc.Enabled() {
		guarded.GET("/audit", auditHandler.ListRecent)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
