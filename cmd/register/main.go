package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/example/pos-register/internal/api"
	"github.com/example/pos-register/internal/auth"
	"github.com/example/pos-register/internal/checkout"
	"github.com/example/pos-register/internal/config"
	"github.com/example/pos-register/internal/connectivity"
	"github.com/example/pos-register/internal/domain/plan"
	"github.com/example/pos-register/internal/domain/staff"
	"github.com/example/pos-register/internal/infrastructure/cache"
	"github.com/example/pos-register/internal/infrastructure/kafka"
	"github.com/example/pos-register/internal/infrastructure/localstore"
	"github.com/example/pos-register/internal/infrastructure/store"
	"github.com/example/pos-register/internal/session"
	"github.com/example/pos-register/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Register] Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Register] Invalid configuration: %v", err)
	}

	log.Println("[Register] ========================================")
	log.Println("[Register] POS Register - Order Submission")
	log.Println("[Register] ========================================")
	log.Printf("[Register] Local store: %s", cfg.LocalStorePath)
	log.Printf("[Register] Kafka: %v", cfg.KafkaBrokers)

	shutdownTracing, err := telemetry.SetupTracing(ctx, "pos-register", cfg.OTELEndpoint)
	if err != nil {
		log.Printf("[Register] Tracing disabled: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Postgres is the remote store; the register starts even when it is unreachable.
	db, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Register] Failed to open PostgreSQL: %v", err)
	}
	defer db.Close()

	local, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		log.Fatalf("[Register] Failed to open local store: %v", err)
	}
	defer local.Close()

	queue, err := checkout.LoadQueue(ctx, local)
	if err != nil {
		log.Fatalf("[Register] Failed to load offline queue: %v", err)
	}
	log.Printf("[Register] %d orders waiting to sync", queue.Len())

	orders := store.NewBreakerOrderStore(store.NewPostgresOrderStore(db), store.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	})

	probe := connectivity.NewProbe(db, cfg.ProbeInterval)

	recorders := telemetry.Multi{telemetry.NewLogRecorder(log.Default())}
	if cfg.KafkaEnabled() {
		producer := kafka.NewAsyncProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		recorders = append(recorders, telemetry.NewKafkaRecorder(producer))
	}

	profiles := session.NewProvider(store.NewPostgresProfileStore(db))

	// SYNC_RATE=0 disables pacing.
	syncRate := rate.Inf
	if cfg.SyncRate > 0 {
		syncRate = rate.Limit(cfg.SyncRate)
	}

	checkoutSvc := checkout.NewService(queue, orders, probe, profiles,
		checkout.WithRecorder(recorders),
		checkout.WithRemoteTimeout(cfg.RemoteTimeout),
		checkout.WithLimiter(rate.NewLimiter(syncRate, 1)),
	)

	adminStore := store.NewPostgresAdminStore(db)
	var planCache plan.Cache
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		planCache = cache.NewRedisPlanCache(client, cfg.PlanCacheTTL)
	}
	planSvc := plan.NewService(adminStore, planCache)
	staffSvc := staff.NewService(adminStore)

	syncer := checkout.NewSyncer(checkoutSvc, cfg.SyncInterval)
	probe.Subscribe(syncer.OnTransition)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		probe.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		syncer.Run(ctx)
	}()

	jwtService := auth.NewJWTService(cfg.JWTSecret, 0)
	handlers := api.NewHandlers(checkoutSvc, profiles, planSvc, staffSvc)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handlers, jwtService, cfg.CORSOrigins),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		log.Printf("[Register] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Register] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Register] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Register] Shutdown error: %v", err)
	}

	cancel() // Stop probe and syncer
	wg.Wait()

	if n := queue.Len(); n > 0 {
		log.Printf("[Register] %d orders remain queued for the next start", n)
	}
}
