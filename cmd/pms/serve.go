package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Saviken/TNH-Performance-Target/internal/config"
	"github.com/Saviken/TNH-Performance-Target/internal/middleware"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/cache"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/handler"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/notify"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/sse"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd, cfg, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "run migrations before serving")
	return cmd
}

func serve(cmd *cobra.Command, cfg *config.Config, autoMigrate bool) error {
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting tnh-pms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured")
	}

	db, err := initDatabase(cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return err
	}
	if autoMigrate {
		if err := migrate(cmd, db, zapLogger); err != nil {
			return err
		}
	}

	rdb := initRedis(cfg.Redis, zapLogger)
	if rdb != nil {
		defer rdb.Close()
	}
	appCache := cache.New(rdb, cfg.Redis.CacheTTL)

	enforcer, err := authz.NewEnforcer(zapLogger)
	if err != nil {
		return fmt.Errorf("init enforcer: %w", err)
	}

	hub := sse.NewHub(zapLogger)
	notifyOpts := []notify.Option{
		notify.WithHub(hub),
		notify.WithCache(appCache),
		notify.WithScope(cfg.Notify.Scope),
	}
	if cfg.NATS.URL != "" {
		pub, err := notify.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			zapLogger.Warn("NATS unavailable, notifications stay in-app only", zap.Error(err))
		} else {
			defer pub.Close()
			notifyOpts = append(notifyOpts, notify.WithPublisher(pub))
		}
	}

	deps := service.Deps{
		DB:       db,
		Repos:    repository.NewRepositories(db),
		Enforcer: enforcer,
		Notifier: notify.NewDispatcher(db, zapLogger, notifyOpts...),
		Cache:    appCache,
		Logger:   zapLogger,
	}
	// 未配置 MinIO 时保持 Evidence 为 nil 接口
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.New(cmd.Context(), cfg.MinIO, zapLogger)
		if err != nil {
			zapLogger.Warn("MinIO unavailable, evidence upload disabled", zap.Error(err))
		} else {
			deps.Evidence = store
		}
	}
	services := service.NewServices(deps)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	// SSE 不压缩
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/sse/events"})))

	registerRoutes(router, db, handler.NewHandlers(services, hub), cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 长连接
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}

func registerRoutes(r *gin.Engine, db *gorm.DB, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": handler.CodeNotFound, "message": "Not found"})
	})

	// API v1，SSE 通过 query token 认证
	v1 := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	h.Register(v1)
}
