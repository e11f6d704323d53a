package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SARVESHVARADKAR123/chatsync/internal/application"
	"github.com/SARVESHVARADKAR123/chatsync/internal/cache"
	"github.com/SARVESHVARADKAR123/chatsync/internal/config"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"github.com/SARVESHVARADKAR123/chatsync/internal/scheduler"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store/postgres"
	transporthttp "github.com/SARVESHVARADKAR123/chatsync/internal/transport/http"
)

func main() {
	cfg, err := config.LoadStore()
	if err != nil {
		observability.InitLogger("chatsync-store", "info")
		observability.Log.Fatal("invalid configuration", zap.Error(err))
	}

	// Observability
	observability.InitLogger(cfg.ServiceName, cfg.LogLevel)
	log := observability.Log
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	st, ready, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	// Summary repair
	svc := application.New(st, nil, log)
	repair, err := scheduler.NewRepair(svc, st, cfg.RepairInterval, cfg.RequestTimeout, log)
	if err != nil {
		log.Fatal("scheduler init failed", zap.Error(err))
	}

	router := transporthttp.NewRouter(st, transporthttp.Options{
		ServiceName:       cfg.ServiceName,
		DB:                ready,
		Timeout:           cfg.RequestTimeout,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("store HTTP started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		repair.Start()
		log.Info("summary repair scheduled", zap.Duration("interval", cfg.RepairInterval))

		<-gCtx.Done()
		return repair.Shutdown()
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("initiating shutdown")

		ctxShut, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShut)
	})

	if err := g.Wait(); err != nil {
		log.Error("store stopped with error", zap.Error(err))
		return
	}
	log.Info("store stopped")
}

// openStore picks postgres when DATABASE_URL is set and the in-memory store
// otherwise. ready is nil for the in-memory store.
func openStore(ctx context.Context, cfg config.Store, log *zap.Logger) (store.ConversationStore, observability.Pinger, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, serving from memory")
		return store.NewMemory(nil), nil, func() {}, nil
	}

	// Database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	if err := postgres.ApplyMigrations(db, log); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	repo := &postgres.Repository{DB: db, Log: log}
	closers := []func() error{db.Close}

	// Redis
	if cfg.RedisAddr != "" {
		c := cache.New(cfg.RedisAddr)
		if err := c.Ping(ctx); err != nil {
			log.Warn("redis unreachable, conversation cache disabled", zap.Error(err))
			_ = c.Close()
		} else {
			repo.Cache = c
			closers = append([]func() error{c.Close}, closers...)
		}
	}

	return repo, db, func() {
		for _, c := range closers {
			_ = c()
		}
	}, nil
}
