package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"upsolve/api"
	"upsolve/cache"
	configs "upsolve/config"
	"upsolve/logger"
	"upsolve/mongoconn"
	"upsolve/natsclient"
	"upsolve/repository"
	"upsolve/service"
)

var inMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, NATS worker and resync scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&inMemory, "memory", false, "Keep users and questions in memory instead of MongoDB")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()
	traceID := uuid.New().String()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Log(zapcore.ErrorLevel, traceID, "Failed to open store", map[string]any{
			"errorType": "DB_ERROR",
		}, "MAIN", err)
		return err
	}
	defer closeStore()

	c := openCache(ctx, cfg, log, traceID)
	if rc, ok := c.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	var publisher service.Publisher
	var nc *natsclient.NatsClient
	if cfg.NATSURL != "" {
		nc, err = natsclient.NewNatsClient(cfg.NATSURL)
		if err != nil {
			log.Log(zapcore.WarnLevel, traceID, "NATS unavailable, running without worker", map[string]any{
				"natsUrl":   cfg.NATSURL,
				"errorType": "NATS_ERROR",
			}, "MAIN", err)
		} else {
			defer nc.Drain()
			publisher = nc
		}
	}

	s, err := buildScrapers(cfg, log)
	if err != nil {
		return err
	}
	svc := service.NewService(store, s.resolver, s.extractor, s.cf, s.limiter, c, publisher, log, service.Options{
		BaseURL:           s.cf.BaseURL(),
		StatementCacheTTL: cfg.StatementCacheTTL,
		ResyncSchedule:    cfg.ResyncSchedule,
	})

	scheduler, err := svc.StartCronJob()
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	if nc != nil {
		worker := service.NewWorker(svc, nc, log)
		if err := worker.Start(); err != nil {
			return err
		}
		defer worker.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(svc, log, 0),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Log(zapcore.InfoLevel, traceID, "HTTP server listening", map[string]any{
			"port": cfg.HTTPPort,
		}, "MAIN", nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Log(zapcore.InfoLevel, traceID, "Shutting down", nil, "MAIN", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg configs.Config) (service.Store, func(), error) {
	if inMemory || cfg.MongoDBURL == "" {
		return repository.NewMemoryRepository(), func() {}, nil
	}
	client, err := mongoconn.ConnectDB(ctx, cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	repo := repository.NewRepository(client, cfg.MongoDBName)
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}

// openCache prefers Redis and falls back to the in-process cache when Redis
// is not configured or not reachable.
func openCache(ctx context.Context, cfg configs.Config, log *logger.Logger, traceID string) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache()
	}
	rc := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPass, cfg.RedisDB, log)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Log(zapcore.WarnLevel, traceID, "Redis unavailable, using in-memory cache", map[string]any{
			"redisUrl":  cfg.RedisURL,
			"errorType": "CACHE_ERROR",
		}, "MAIN", err)
		_ = rc.Close()
		return cache.NewMemoryCache()
	}
	return rc
}
