package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/api"
	"github.com/bricon/seo-engine/config"
	"github.com/bricon/seo-engine/logging"
	"github.com/bricon/seo-engine/metrics"
	"github.com/bricon/seo-engine/middleware"
	"github.com/bricon/seo-engine/scheduler"
	"github.com/bricon/seo-engine/scoring"
	"github.com/bricon/seo-engine/stats"
	"github.com/bricon/seo-engine/store"
)

func main() {
	envFile := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if envFile == "" {
		logger.Info("No .env file found, using environment variables")
	} else {
		logger.Info("Loaded environment file", zap.String("file", envFile))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	keywords, err := config.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		return err
	}

	repo, err := store.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	statsStorage, err := stats.NewStorage(cfg.DataDir, stats.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := statsStorage.Shutdown(); err != nil {
			logger.Warn("Failed to save statistics", zap.Error(err))
		}
	}()

	m := metrics.New()

	seoAnalyzer := analyzer.New(analyzer.Options{
		Keywords:   keywords,
		SiteDomain: cfg.SiteDomain,
		Resolver:   repo,
		CacheTTL:   cfg.PreviewCacheTTL,
		Stats:      statsStorage,
		Logger:     logger.Named("analyzer"),
		Observe:    m.ObserveScore,
	})
	defer seoAnalyzer.Shutdown()

	service := scoring.New(scoring.Options{
		Analyzer: seoAnalyzer,
		Repo:     repo,
		ScoreTTL: cfg.ScoreTTL,
		Stats:    statsStorage,
		Metrics:  m,
		Logger:   logger.Named("scoring"),
	})

	rescore := scheduler.New(service, 0, logger.Named("scheduler"))
	if err := rescore.Schedule(cfg.RescoreSchedule); err != nil {
		return err
	}
	rescore.Start()
	defer rescore.Stop()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	defer rateLimiter.Stop()

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.RequestLogger(logger.Named("http"), m))
	r.Use(middleware.CORS())
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// Previews and writes are rate limited, monitoring routes are not
	limited := r.Group("/", rateLimiter.RateLimit())
	api.NewHandler(seoAnalyzer, service, repo, statsStorage, logger.Named("api")).Register(limited)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("database", cfg.DatabasePath),
			zap.Int("primary_keywords", len(keywords.Primary)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
