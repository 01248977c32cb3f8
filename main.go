package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/cache"
	"github.com/AmrIbrahim41/smart-shop/internal/config"
	"github.com/AmrIbrahim41/smart-shop/internal/database"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/handlers"
	"github.com/AmrIbrahim41/smart-shop/internal/logger"
	"github.com/AmrIbrahim41/smart-shop/internal/mailer"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/scheduler"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
	"github.com/AmrIbrahim41/smart-shop/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	if cfg.DotEnvErr != nil {
		log.Debug("no .env file loaded", zap.Error(cfg.DotEnvErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName, log)
	if err != nil {
		log.Fatal("mongo unavailable", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	if err := database.EnsureIndexes(ctx, db, log); err != nil {
		log.Warn("index setup incomplete", zap.Error(err))
	}

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("storage unavailable", zap.Error(err))
	}

	var topCache cache.TopProducts = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, top products are not cached", zap.Error(err))
		} else {
			defer redisCache.Close()
			topCache = redisCache
		}
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer kafka.Close()
		publisher = kafka
	}

	metrics := middleware.NewMetrics()
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.ActionTokenTTL)
	refreshTokens := database.NewRefreshTokenRepository(db)

	services := service.New(service.Deps{
		Tx:            database.NewTxRunner(client),
		Products:      database.NewProductRepository(db),
		Categories:    database.NewCategoryRepository(db),
		Tags:          database.NewTagRepository(db),
		Reviews:       database.NewReviewRepository(db),
		Orders:        database.NewOrderRepository(db),
		Carts:         database.NewCartRepository(db),
		Wishlist:      database.NewWishlistRepository(db),
		Users:         database.NewUserRepository(db),
		Profiles:      database.NewProfileRepository(db),
		RefreshTokens: refreshTokens,

		Tokens:   tokens,
		Mailer:   mailer.New(cfg.SMTP, log),
		Storage:  store,
		TopCache: topCache,
		Events:   publisher,
		Observer: metrics,
		Log:      log,
		Options: service.Options{
			PageSize:         cfg.Catalog.PageSize,
			TopProductsLimit: cfg.Catalog.TopProductsLimit,
			FrontendURL:      cfg.App.FrontendURL,
			RefreshTTL:       cfg.JWT.RefreshTokenTTL,
		},
	})

	jobs, err := scheduler.New(log)
	if err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}
	if err := jobs.AddTokenCleanup(refreshTokens, cfg.Jobs.CleanupInterval); err != nil {
		log.Fatal("schedule token cleanup", zap.Error(err))
	}
	jobs.Start()
	defer func() { _ = jobs.Shutdown() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		metrics.Middleware(),
	)

	// Local uploads are served by the API itself; S3 objects are public URLs.
	if local, ok := store.(*storage.Local); ok && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, local.Root())
	}

	handlers.RegisterRoutes(r, handlers.Router{
		Services: services,
		Tokens:   tokens,
		Metrics:  metrics,
		DB:       db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
