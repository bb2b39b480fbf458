package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "hrms/api/swagger" // swagger docs
	"hrms/internal/config"
	"hrms/internal/database"
	"hrms/internal/handler"
	"hrms/internal/metrics"
	"hrms/internal/middleware"
	"hrms/internal/websocket"
	"hrms/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// loginLimiterSize bounds the number of client addresses tracked.
const loginLimiterSize = 4096

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	m := metrics.New()
	a := newApp(cfg, db, log, m, hub)
	if err := a.roles.SeedDefaultRolesAndPermissions(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	router, err := newRouter(cfg, db, a, hub, m, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newRouter(cfg *config.Config, db *gorm.DB, a *app, hub *websocket.Hub, m *metrics.Metrics, log logger.Logger) (*gin.Engine, error) {
	guard := middleware.NewGuard(a.authz, a.tokens, log)
	limiter, err := middleware.NewLoginLimiter(cfg.Auth.LoginRatePerMinute, loginLimiterSize)
	if err != nil {
		return nil, fmt.Errorf("login limiter: %w", err)
	}
	cookies := middleware.CookieOptions{
		Secure:     cfg.Auth.SecureCookies,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log), m.GinMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "websocket_clients": hub.ClientCount()})
	})
	router.GET("/ws", websocket.NewHandler(hub, a.tokens, a.authz).ServeWs)

	api := router.Group("/api")
	handler.NewUserHandler(a.users, a.roles, guard, limiter, cookies, log).RegisterRoutes(api)
	handler.NewRoleHandler(a.roles, guard, log).RegisterRoutes(api)
	handler.NewTimeEntryHandler(a.entries, guard, log).RegisterRoutes(api)
	handler.NewTimerHandler(a.timer, guard, log).RegisterRoutes(api)
	handler.NewTimesheetHandler(a.sheets, guard, log).RegisterRoutes(api)
	handler.NewScheduleHandler(a.schedules, guard, log).RegisterRoutes(api)
	handler.NewRateHandler(a.rates, guard, log).RegisterRoutes(api)
	handler.NewCompanyHandler(a.companies, guard, log).RegisterRoutes(api)
	handler.NewAuditHandler(a.audit, guard, log).RegisterRoutes(api)

	return router, nil
}
