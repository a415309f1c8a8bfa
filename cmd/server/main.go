package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/google"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/logging"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/refresh"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/session"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/yahoo"
)

// archivePurgeInterval is how often expired uploads are removed.
const archivePurgeInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(logging.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	log.Info().Str("version", version.Version).Msg("starting stock portfolio tracker")

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Market data
	gateway := marketdata.NewGateway(
		yahoo.NewFinanceClient(cfg.Market.YahooBaseURL, cfg.Market.HTTPTimeout),
		google.NewFinanceClient(cfg.Market.GoogleBaseURL, cfg.Market.GoogleDefaultExchange, cfg.Market.HTTPTimeout),
		marketdata.NewSynthetic(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), time.Now),
		log,
	)
	cache := marketdata.NewCache(gateway,
		marketdata.WithTTL(cfg.Market.CacheTTL),
		marketdata.WithRetention(cfg.Market.CacheRetention),
		marketdata.WithDelay(cfg.Market.RequestDelay),
		marketdata.WithLogger(log),
	)
	defer cache.Close()

	sess := session.New(cache, session.Options{
		Interval:    cfg.Refresh.Interval,
		AutoRefresh: cfg.Refresh.Enabled,
	}, log)
	defer sess.Close()
	sess.OnUpdate(func(snap model.PortfolioSnapshot) {
		log.Debug().
			Int("holdings", len(snap.Holdings)).
			Float64("total_value", snap.TotalValue).
			Msg("portfolio updated")
	})

	// Create services
	uploadService, err := service.NewUploadService(
		repository.NewUploadRepository(db),
		sess,
		service.UploadOptions{
			MaxBytes:      cfg.Upload.MaxBytes,
			Retention:     cfg.Upload.Retention,
			EncryptionKey: cfg.Upload.EncryptionKey,
		},
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create upload service")
	}

	purge := refresh.New(func(ctx context.Context) error {
		_, err := uploadService.PurgeExpired(ctx)
		return err
	}, archivePurgeInterval, log.With().Str("job", "archive_purge").Logger())
	purge.Start()
	defer purge.Stop()

	router := api.NewRouter(api.Services{
		System:    service.NewSystemService(db, map[string]bool{"upload_archive": true, "auto_refresh": true}),
		Portfolio: service.NewPortfolioService(sess),
		Market:    service.NewMarketService(cache),
		Upload:    uploadService,
	}, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

