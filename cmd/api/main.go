// Command api runs the courier quote and booking service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/api"
	"github.com/lcmcoursier/courier-quote/internal/api/handler"
	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/contactvault"
	"github.com/lcmcoursier/courier-quote/internal/core/distance"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
	"github.com/lcmcoursier/courier-quote/internal/core/ratelimit"
	"github.com/lcmcoursier/courier-quote/internal/core/search"
	"github.com/lcmcoursier/courier-quote/internal/core/service"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/adresse"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/config"
	mongodb "github.com/lcmcoursier/courier-quote/internal/infrastructure/db/mongo"
	redisdb "github.com/lcmcoursier/courier-quote/internal/infrastructure/db/redis"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/filestore"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/kafka"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/osrm"
	"github.com/lcmcoursier/courier-quote/internal/infrastructure/queue"
	"github.com/lcmcoursier/courier-quote/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger ---
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "courier-quote",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probes := make(map[string]handler.Pinger)

	// --- Order storage ---
	var repo ports.OrderRepository
	switch cfg.Storage.Driver {
	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		orders := mongodb.NewOrderRepository(db)
		if err := orders.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to create order indexes")
		}
		repo = orders
		probes["mongodb"] = mongodb.NewPinger(db)
	default:
		repo = filestore.NewOrderLog(cfg.Storage.OrdersFile)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("order storage ready")

	// The writer outlives the HTTP server so in-flight submissions can finish.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()
	orderQueue := queue.NewSerializer(repo, metrics.OrderQueueDepth, logger.Component("order-queue"))
	orderQueue.Start(writerCtx)

	// --- Redis (optional) ---
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			if cfg.RateLimit.Backend == "redis" {
				return err
			}
			log.Warn().Err(err).Msg("redis unavailable, route cache disabled")
		} else {
			defer rdb.Close()
			probes["redis"] = redisdb.NewPinger(rdb)
		}
	}

	// --- Routing ---
	var finder ports.RouteFinder = osrm.New(cfg.Routing.BaseURL, &http.Client{Timeout: cfg.Routing.Timeout})
	if rdb != nil {
		finder = redisdb.NewRouteCache(rdb, finder, cfg.Redis.RouteCacheTTL, logger.Component("route-cache"))
	}

	// --- Rate limiter ---
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = redisdb.NewWindowLimiter(rdb, cfg.RateLimit.Window, cfg.RateLimit.Max, logger.Component("rate-limit"))
	} else {
		window := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Max)
		defer window.Shutdown()
		limiter = window
	}

	// --- Order events (optional) ---
	var publisher ports.OrderPublisher
	if cfg.Kafka.Broker != "" {
		p := kafka.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger.Component("order-events"))
		defer p.Close()
		publisher = p
	}

	// --- Contact vault ---
	vault, err := newVault(cfg.Vault, log)
	if err != nil {
		return err
	}

	// --- Services ---
	orderService := service.NewOrderService(orderQueue, publisher, logger.Component("orders"))
	quoteService := service.NewQuoteService(finder, logger.Component("quotes"),
		distance.WithOnStale(metrics.StaleDistanceResultsTotal.Inc),
	)
	searchService := search.NewService(
		adresse.New(cfg.Search.BaseURL, &http.Client{Timeout: cfg.Search.Timeout}),
		logger.Component("address-search"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Orders:       orderService,
		Quotes:       quoteService,
		Search:       searchService,
		Limiter:      limiter,
		Vault:        vault,
		Probes:       probes,
		MaxBodyBytes: cfg.MaxBodyBytes,
		SecureCookie: !cfg.IsDevelopment(),
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stopWriter()

	log.Info().Msg("server stopped")
	return nil
}

func newVault(cfg config.VaultConfig, log zerolog.Logger) (*contactvault.Vault, error) {
	if cfg.Key == "" {
		log.Warn().Msg("CONTACT_VAULT_KEY not set, remembered contacts will not survive a restart")
		key, err := contactvault.NewKey()
		if err != nil {
			return nil, err
		}
		return contactvault.New(key, cfg.TTL)
	}
	key, err := contactvault.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("CONTACT_VAULT_KEY: %w", err)
	}
	return contactvault.New(key, cfg.TTL)
}
