package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "gig-dispatch/internal/api/http"
	"gig-dispatch/internal/config"
	"gig-dispatch/internal/directory"
	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/infra/etcd"
	delivery "gig-dispatch/internal/infra/http"
	"gig-dispatch/internal/infra/memory"
	redisinfra "gig-dispatch/internal/infra/redis"
	"gig-dispatch/internal/tracing"
	"gig-dispatch/internal/usecase"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("gig-dispatch")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	nodeID := uuid.New().String()
	logger.Info("starting dispatcher node", "node_id", nodeID)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel)

	// Coordination backends: in-process by default, etcd/redis when the
	// dispatcher runs as more than one node.
	var locker domain.Locker = memory.NewLocker()
	var leaderManager domain.LeaderElectionManager
	if len(cfg.EtcdEndpoints) > 0 {
		etcdClient, err := etcd.NewClient(cfg.EtcdEndpoints, cfg.EtcdTimeout)
		if err != nil {
			log.Fatalf("Failed to create etcd client: %v", err)
		}
		defer etcdClient.Close()
		locker = etcd.NewLocker(etcdClient)
		leaderManager = etcd.NewLeaderElectionManager(etcdClient, nodeID, cfg.LeaderElectionTTL, logger)
		logger.Info("connected to etcd", "endpoints", cfg.EtcdEndpoints)
	}

	var ledger domain.DeliveryLedger = memory.NewLedger(cfg.DeliveryLedgerTTL)
	if cfg.RedisURL != "" {
		redisClient, err := redisinfra.NewClient(rootCtx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create redis client: %v", err)
		}
		defer redisClient.Close()
		ledger = redisinfra.NewLedger(redisClient, cfg.DeliveryLedgerTTL)
		logger.Info("connected to redis")
	}

	deliverer := delivery.NewDeliveryClient(delivery.Options{
		GatewayURL:     cfg.GatewayURL,
		Token:          cfg.GatewayToken,
		Backoff:        cfg.DeliveryBackoff,
		RequestTimeout: cfg.DeliveryRequestTimeout,
		ConnectTimeout: cfg.DeliveryConnectTimeout,
	}, ledger, logger)

	workerDirectory := directory.New(logger)
	jobStore := memory.NewJobStore()
	dispatchService := usecase.NewDispatchService(
		jobStore, workerDirectory, domain.NewMatcher(), deliverer, locker, logger)

	if cfg.ExpireJobs {
		expiryService := usecase.NewExpiryService(jobStore, leaderManager, cfg.ExpireSchedule, logger)
		go func() {
			if err := expiryService.Start(rootCtx); err != nil && rootCtx.Err() == nil {
				logger.Error("expiry service stopped", "error", err)
			}
		}()
	}

	apiMux := http.NewServeMux()
	api.NewDispatchHandler(dispatchService, logger).RegisterRoutes(apiMux)
	api.NewWorkerHandler(workerDirectory, logger).RegisterRoutes(apiMux)

	// /metrics stays outside the bearer-auth boundary for scraping.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api.BearerAuth(cfg.APIToken, apiMux))

	logger.Info("starting HTTP API server", "addr", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	logger.Info("dispatcher shut down")
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
