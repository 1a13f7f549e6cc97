package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/quantrail/stratforge/internal/broker"
	"github.com/quantrail/stratforge/internal/config"
	"github.com/quantrail/stratforge/internal/dashboard"
	"github.com/quantrail/stratforge/internal/mock"
	"github.com/quantrail/stratforge/internal/models"
	"github.com/quantrail/stratforge/internal/orders"
	"github.com/quantrail/stratforge/internal/retry"
	"github.com/quantrail/stratforge/internal/storage"
)

// demoDraftCount covers every sample recipe with a couple of repeats.
const demoDraftCount = 6

const pingTimeout = 5 * time.Second

func main() {
	var configPath string
	var demo bool
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&demo, "demo", false, "Seed an empty draft store with sample strategies")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging)

	if err := run(cfg, logger, demo); err != nil {
		logger.WithError(err).Fatal("Service exited")
	}
	logger.Info("Service stopped")
}

// newLogger builds the service logger from the logging config. Config
// validation has already vetted the values; fall back to info/text anyway
// so a future config change cannot leave the service without a logger.
func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func run(cfg *config.Config, logger *logrus.Logger, demo bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStorage(cfg.Storage.Path, cfg.Storage.Backups)
	if err != nil {
		return fmt.Errorf("opening draft store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Closing draft store")
		}
	}()

	repaired, dropped := sanitizeDrafts(store, logger)
	if repaired+dropped > 0 {
		logger.WithFields(logrus.Fields{
			"repaired": repaired,
			"dropped":  dropped,
		}).Info("Draft store sanitized")
	}

	if demo {
		if err := seedDemoDrafts(store, logger); err != nil {
			return fmt.Errorf("seeding demo drafts: %w", err)
		}
	}

	specs := cfg.IndexSpecs()
	service := newOrderService(cfg.OrderService, logger)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	if err := service.Ping(pingCtx); err != nil {
		logger.WithError(err).Warn("Order service unreachable, drafting works but submissions will fail")
	} else {
		logger.WithField("url", cfg.OrderService.BaseURL).Info("Order service reachable")
	}
	cancel()

	manager := orders.NewManager(service, store, logger, specs, orders.Config{
		PollInterval: cfg.OrderService.PollIntervalDuration(),
		PollTimeout:  cfg.OrderService.PollTimeoutDuration(),
	})

	server := dashboard.NewServer(dashboard.Config{
		Port:          cfg.Server.Port,
		AuthToken:     cfg.Server.AuthToken,
		DefaultIndex:  models.IndexSymbol(cfg.Engine.DefaultIndex),
		DefaultExpiry: models.ExpiryType(cfg.Engine.DefaultExpiry),
	}, store, manager, specs, logger)

	logger.WithFields(logrus.Fields{
		"port":  cfg.Server.Port,
		"store": cfg.Storage.Path,
		"demo":  demo,
	}).Info("Starting strategy builder service")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, draining dashboard requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newOrderService assembles the client stack for the upstream order
// service: retrying transport, JSON client, circuit breaker on top.
func newOrderService(cfg config.OrderServiceConfig, logger *logrus.Logger) broker.OrderService {
	transport := retry.NewClient(&http.Client{Timeout: cfg.RequestTimeout()}, logger)
	client := broker.NewHTTPClient(cfg.BaseURL, cfg.APIKey, cfg.RequestTimeout()).WithDoer(transport)
	return broker.NewCircuitBreakerClientWithSettings(client, logger, breakerSettings(cfg.CircuitBreaker))
}

// breakerSettings maps the yaml circuit-breaker block onto broker settings,
// filling unset fields with the same defaults NewCircuitBreakerClient uses.
// A zero FailureRatio would otherwise trip the breaker on the first failure.
func breakerSettings(cb config.CircuitBreakerConfig) broker.CircuitBreakerSettings {
	settings := broker.CircuitBreakerSettings{
		MaxRequests:  cb.MaxRequests,
		Interval:     cb.BreakerInterval(),
		Timeout:      cb.BreakerTimeout(),
		MinRequests:  cb.MinRequests,
		FailureRatio: cb.FailureRatio,
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 3
	}
	if settings.MinRequests == 0 {
		settings.MinRequests = 5
	}
	if settings.FailureRatio == 0 {
		settings.FailureRatio = 0.6
	}
	return settings
}

// seedDemoDrafts fills an empty store with sample drafts so the builder UI
// has something to show. A store that already holds drafts is left alone.
func seedDemoDrafts(store storage.Interface, logger *logrus.Logger) error {
	if n := store.Counts().Total; n > 0 {
		logger.WithField("drafts", n).Info("Demo mode: store already has drafts, not seeding")
		return nil
	}

	drafts, err := mock.GenerateSampleDrafts(demoDraftCount)
	if err != nil {
		return err
	}
	for _, d := range drafts {
		if err := store.SaveDraft(d); err != nil {
			return fmt.Errorf("saving sample draft %q: %w", d.Strategy.Name, err)
		}
	}
	logger.WithField("drafts", len(drafts)).Info("Demo mode: seeded sample drafts")
	return nil
}
