package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tvfleet/pkg/api"
	"tvfleet/pkg/communication"
	"tvfleet/pkg/config"
	"tvfleet/pkg/database"
	"tvfleet/pkg/dispatch"
	"tvfleet/pkg/health"
	"tvfleet/pkg/inventory"
	"tvfleet/pkg/metrics"
	"tvfleet/pkg/models"
	"tvfleet/pkg/probe"
	"tvfleet/pkg/registry"
	"tvfleet/pkg/status"
	"tvfleet/pkg/transport"
)

func main() {
	// ══════════════════════════════════════════════════════════════
	// STRUCTURED LOGGING
	// ══════════════════════════════════════════════════════════════
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ══════════════════════════════════════════════════════════════
	// CONFIGURATION
	// ══════════════════════════════════════════════════════════════
	conf, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Config loaded",
		"fping_path", conf.FpingPath,
		"status_interval", conf.StatusPollIntervalSeconds,
		"dispatch_timeout", conf.DispatchTimeoutSeconds)

	metrics.Init()

	// Initialize Auth Service
	auth := api.Auth(conf)

	// ══════════════════════════════════════════════════════════════
	// DATABASE
	// ══════════════════════════════════════════════════════════════
	db, err := database.Connect(conf)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// ══════════════════════════════════════════════════════════════
	// COMMUNICATION CHANNELS - One per topic
	// ══════════════════════════════════════════════════════════════
	// Inventory mutations flow to the status cache; per-TV outcomes
	// flow to the health monitor. In-process channels keep the binary
	// self-contained; a crash loses in-flight events, which is
	// acceptable for advisory health state.
	inventoryEvents := make(chan models.Event, conf.InternalQueueSize)
	healthEvents := make(chan models.Event, conf.InternalQueueSize)

	// ══════════════════════════════════════════════════════════════
	// REPOSITORIES & SERVICES
	// ══════════════════════════════════════════════════════════════
	tvRepo := communication.NewPublishingRepo[models.TV](
		database.NewGormRepository[models.TV](db), inventoryEvents)
	keyRepo := database.NewGormRepository[models.CommandKey](db)

	inv := inventory.NewService(tvRepo, conf.EncryptionKey)
	reg := registry.NewService(keyRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := reg.Seed(ctx); err != nil {
		slog.Error("Failed to seed command keys", "error", err)
		os.Exit(1)
	}

	prober := probe.NewProber(conf.FpingPath, conf.FpingTimeoutMs, conf.FpingRetryCount)
	remote := transport.NewRemote(conf.RemoteAppName,
		time.Duration(conf.WSConnectTimeoutSeconds)*time.Second,
		time.Duration(conf.PairingTimeoutSeconds)*time.Second)
	controller := transport.NewController(inv, reg, prober, remote, transport.WOLConfig{
		DefaultBroadcast: conf.WOLBroadcastIP,
		Port:             conf.WOLPort,
	})
	dispatcher := dispatch.New(controller, time.Duration(conf.DispatchTimeoutSeconds)*time.Second)

	cache := status.NewCache(inventoryEvents, prober, conf.StatusPollIntervalSeconds)
	monitor := health.NewHealthMonitor(healthEvents, inv, conf.FailureWindowMinutes, conf.FailureThreshold)

	// ══════════════════════════════════════════════════════════════
	// INITIAL CACHE LOAD
	// ══════════════════════════════════════════════════════════════
	initialTVs, err := inv.List(ctx)
	if err != nil {
		slog.Error("Failed to list TVs for status cache", "error", err)
	}
	cache.LoadCache(initialTVs)

	// ══════════════════════════════════════════════════════════════
	// START SERVICES
	// ══════════════════════════════════════════════════════════════
	go cache.Run(ctx)
	go monitor.Run(ctx)

	// ══════════════════════════════════════════════════════════════
	// ROUTER SETUP
	// ══════════════════════════════════════════════════════════════
	router := api.SetupRouter(api.RouterDeps{
		Auth:          auth,
		Dispatcher:    dispatcher,
		TVs:           inv,
		Commands:      reg,
		Status:        cache,
		Probe:         prober,
		Remote:        remote,
		HealthEvents:  healthEvents,
		TVRepo:        tvRepo,
		KeyRepo:       keyRepo,
		EncryptionKey: conf.EncryptionKey,
	})

	// ══════════════════════════════════════════════════════════════
	// START SERVER
	// ══════════════════════════════════════════════════════════════
	if conf.TLSCertFile != "" && conf.TLSKeyFile != "" {
		slog.Info("Starting HTTPS server", "address", conf.ServerAddress)
		if err := router.RunTLS(conf.ServerAddress, conf.TLSCertFile, conf.TLSKeyFile); err != nil {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("Starting HTTP server", "address", conf.ServerAddress)
		if err := router.Run(conf.ServerAddress); err != nil {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
