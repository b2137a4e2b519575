package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bizfinance/internal/cache"
	"bizfinance/internal/httpapi"
	"bizfinance/internal/jobs"
	"bizfinance/internal/tracing"
	"bizfinance/pkg/config"
	"bizfinance/pkg/db"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("db open")
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	_, shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, log)
	if err != nil {
		log.WithError(err).Fatal("tracing init")
	}

	var planCache cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cfg.RedisAddr, "bizfinance:")
		if err := rc.Ping(ctx); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, using in-memory plan cache")
		} else {
			planCache = rc
			defer rc.Close()
		}
	}

	scheduler, err := jobs.Schedule(cfg.BudgetExpirySchedule, &jobs.BudgetExpiry{DB: conn, Log: log})
	if err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	scheduler.Start()

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:   cfg,
		DB:    conn,
		Log:   log,
		Cache: planCache,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	_ = srv.Shutdown(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown")
	}
}
