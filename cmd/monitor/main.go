package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/example/pos-register/internal/config"
	"github.com/example/pos-register/internal/infrastructure/kafka"
	"github.com/example/pos-register/internal/infrastructure/store"
	"github.com/example/pos-register/internal/projection"
	"github.com/joho/godotenv"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Monitor] Failed to read .env: %v", err)
	}

	cfg, err := config.LoadMonitor()
	if err != nil {
		log.Fatalf("[Monitor] Invalid configuration: %v", err)
	}

	log.Println("[Monitor] ========================================")
	log.Println("[Monitor] POS Register - Sync Monitor")
	log.Println("[Monitor] ========================================")
	log.Printf("[Monitor] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Monitor] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Monitor] Group: %s", cfg.KafkaGroup)

	projector := projection.NewProjector(store.NewReadStore())

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Println("[Monitor] Starting event consumer...")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Monitor] Consumer error: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		projector.RunReporter(ctx, cfg.ReportInterval)
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Monitor] Shutting down...")
	cancel()
	wg.Wait()
}
