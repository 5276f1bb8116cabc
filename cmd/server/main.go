package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/post-discovery/config"
	_ "github.com/d60-Lab/post-discovery/docs"
	"github.com/d60-Lab/post-discovery/internal/api/handler"
	"github.com/d60-Lab/post-discovery/internal/client"
	"github.com/d60-Lab/post-discovery/internal/repository"
	"github.com/d60-Lab/post-discovery/internal/service"
	"github.com/d60-Lab/post-discovery/pkg/database"
	"github.com/d60-Lab/post-discovery/pkg/logger"
	"github.com/d60-Lab/post-discovery/pkg/tracing"
)

// @title post-discovery API
// @version 1.0
// @description 个性化内容搜索/发现服务
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, "post-discovery", cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init database failed", zap.Error(err))
		panic(err)
	}

	var graph client.SocialGraphClient = client.NewHTTPSocialGraphClient(
		cfg.Collaborators.SocialGraphURL, cfg.Collaborators.Timeout)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, following cache disabled", zap.Error(err))
		} else {
			graph = client.NewCachedSocialGraphClient(graph, rdb, cfg.Redis.FollowingTTL)
		}
	}
	identity := client.NewHTTPIdentityClient(cfg.Collaborators.IdentityURL, cfg.Collaborators.Timeout)

	svc := service.NewSearchService(repository.NewPostRepository(db), graph, identity)
	r := handler.SetupRouter(cfg, handler.NewHandler(svc, cfg))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logger.Info("post-discovery listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
