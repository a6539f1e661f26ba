package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/taxi-dispatch/internal/ai"
	"github.com/example/taxi-dispatch/internal/assign"
	"github.com/example/taxi-dispatch/internal/config"
	"github.com/example/taxi-dispatch/internal/dispatch"
	"github.com/example/taxi-dispatch/internal/fleet"
	"github.com/example/taxi-dispatch/internal/geocode"
	httpapi "github.com/example/taxi-dispatch/internal/http"
	"github.com/example/taxi-dispatch/internal/ingest"
	"github.com/example/taxi-dispatch/internal/logging"
	"github.com/example/taxi-dispatch/internal/ridelog"
	"github.com/example/taxi-dispatch/internal/routing"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tariff, err := config.LoadTariff(cfg.TariffPath)
	if err != nil {
		log.Fatal(err)
	}

	// Geocoding requires a Google Maps key; without one the engine reports
	// a missing-credential error per request instead of crashing at boot.
	var geocoder geocode.Geocoder
	if cfg.MapsAPIKey != "" {
		g, err := geocode.NewGoogleGeocoder(cfg.MapsAPIKey, cfg.MapsRegion)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		geocoder = geocode.NewCached(g, cfg.GeocodeCacheTTL)
	} else {
		logger.Warn("MAPS_API_KEY not set, assignments will fail with missing_credential")
	}

	var router routing.Router
	if cfg.OSRMEndpoint != "" {
		router = routing.NewOSRMClient(cfg.OSRMEndpoint)
	} else {
		logger.Warn("OSRM_ENDPOINT not set, using straight-line estimator")
		router = routing.NewEstimator(cfg.DefaultSpeedMps)
	}

	var ranker ai.Ranker
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGeminiRanker(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer g.Close()
		ranker = g
	}

	var fleetStore fleet.Store = fleet.NewMemoryStore()
	var logStore ridelog.Store = ridelog.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		fleetStore = fleet.NewRedisStore(rc)
		logStore = ridelog.NewRedisStore(rc)
	}

	var producer httpapi.RidePublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		producer = kp
	}

	engine := &assign.Engine{
		Geocoder: geocoder,
		Router:   router,
		Ranker:   ranker,
		Logger:   logger,
	}

	srv := httpapi.NewServer(httpapi.ServerDeps{
		Logger:   logger,
		Engine:   engine,
		Fleet:    fleetStore,
		RideLog:  logStore,
		Tariff:   tariff,
		Producer: producer,
		WS:       dispatch.NewWSRegistry(),
		Webhook:  dispatch.NewWebhookNotifier(cfg.WebhookURL),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("taxi-dispatch listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
