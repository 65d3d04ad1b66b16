package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	notify_sdk "github.com/cydxin/notify-sdk"
	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/config"
	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/pkg/database"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/pkg/tracing"
	"github.com/cydxin/notify-sdk/service"
)

func main() {
	cfgPath := flag.String("config", "", "config file (yaml/json/toml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	// 1. 日志
	if _, err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 2. Sentry（dsn 为空时不上报）
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(cfg.Server.ShutdownTimeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
		os.Exit(1)
	}

	// 4. 数据库
	db, err := database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Error("数据库连接失败", zap.Error(err))
		os.Exit(1)
	}

	// 5. Redis（token 鉴权 / 跨实例同步）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis 连接失败", zap.Error(err))
			os.Exit(1)
		}
	}

	// 6. Notify Engine
	opts := []notify_sdk.Option{
		notify_sdk.WithDB(db),
		notify_sdk.WithRDB(rdb),
		notify_sdk.WithTablePrefix(cfg.Database.TablePrefix),
		notify_sdk.WithAutoMigrate(cfg.Database.AutoMigrate),
		notify_sdk.WithServiceDebug(cfg.Notify.Debug),
		notify_sdk.WithMaxAncestorDepth(cfg.Notify.MaxAncestorDepth),
		notify_sdk.WithInternalToken(cfg.Server.InternalToken),
		notify_sdk.WithBusOptions(bus.WithMaxListeners(cfg.Bus.MaxListeners), bus.WithBuffer(cfg.Bus.Buffer)),
	}
	if cfg.Auth.Mode == "jwt" {
		opts = append(opts, notify_sdk.WithAuthenticator(
			service.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)))
	}
	if cfg.Bus.Relay {
		opts = append(opts, notify_sdk.WithRelay(cfg.Bus.RelayChannel))
	}
	engine, err := notify_sdk.NewEngine(opts...)
	if err != nil {
		logger.Error("engine init failed", zap.Error(err))
		os.Exit(1)
	}
	defer engine.Close()
	if err := engine.Start(ctx); err != nil {
		logger.Error("engine start failed", zap.Error(err))
		os.Exit(1)
	}

	// 7. 路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.Sentry(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.AccessLog(),
	)
	if cfg.Server.Swagger {
		notify_sdk.RegisterSwagger(r, "/swagger/*any")
	}
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	engine.RegisterRoutes(api, middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
