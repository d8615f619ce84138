// @title fitsocial API
// @version 1.0
// @description 关注关系、点赞、评论、动态流与通知
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/config"
	"github.com/d60-Lab/fitsocial/internal/api"
	"github.com/d60-Lab/fitsocial/internal/api/handler"
	"github.com/d60-Lab/fitsocial/internal/cache"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/database"
	"github.com/d60-Lab/fitsocial/pkg/logger"
	"github.com/d60-Lab/fitsocial/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.L()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("failed to init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	store := repository.NewStore(db)

	var relCache *cache.RelationCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			// 缓存只用于展示列表，Redis 不可用时直接读库
			log.Warn("redis unreachable, relation lists served from database", zap.Error(err))
		}
		relCache = cache.NewRelationCache(client, cfg.Redis.CacheTTL, logger.Named("relation_cache"))
	}
	if cfg.JWT.Secret == "" {
		log.Warn("jwt.secret is empty, trusting the X-User-ID header")
	}

	notifier := service.NewNotifier(store, cfg.Notifier.QueueSize, logger.Named("notifier"))
	stopNotifier := notifier.Start(cfg.Notifier.Workers)
	fanout := service.NewFanoutWorker(store, cfg.Fanout, logger.Named("fanout"))
	stopFanout := fanout.Start()

	publisher := service.NewPublisher()
	graph := service.NewFollowGraph(store, publisher, relCache, notifier, cfg.Pagination.MaxSize, logger.Named("follow_graph"))
	h := handler.New(handler.Services{
		Graph:         graph,
		Reactions:     service.NewReactions(store, notifier),
		Comments:      service.NewCommentThread(store, notifier, cfg.Pagination.MaxSize),
		Feed:          service.NewActivityFeed(store, graph, publisher, cfg.Pagination.MaxSize),
		Workouts:      service.NewWorkoutLog(store, publisher, cfg.Pagination.MaxSize),
		Routines:      service.NewRoutineBook(store, publisher),
		Users:         service.NewUserDirectory(store, logger.Named("user_directory")),
		Notifications: service.NewNotificationService(store, cfg.Pagination.MaxSize),
	}, cfg.Pagination)

	router, err := api.NewRouter(cfg, h, logger.Named("http"))
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// 先停止接收请求，再排空异步队列
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := stopNotifier(shutdownCtx); err != nil {
		log.Warn("notifier did not drain", zap.Error(err), zap.Int("pending", notifier.QueueLen()))
	}
	if err := stopFanout(shutdownCtx); err != nil {
		log.Warn("fanout worker did not stop", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}
	return nil
}
