package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artcry/vpn-service/internal/config"
	"github.com/artcry/vpn-service/internal/db"
	"github.com/artcry/vpn-service/internal/http"
	"github.com/artcry/vpn-service/internal/provider"
	"github.com/artcry/vpn-service/internal/repository"
	"github.com/artcry/vpn-service/internal/scheduler"
	"github.com/artcry/vpn-service/internal/service"
)

func main() {
	log.Println("Starting VPN Service...")

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 60*time.Second)
	err = db.Migrate(ctx, pool)
	cancel()
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize store and services
	store := repository.NewStore(pool)

	lifecycleService := service.NewLifecycleService(cfg, store, provider.OutlineFactory)
	catalogService := service.NewCatalogService(store)
	reconcileService := service.NewReconcileService(store, provider.OutlineFactory)

	// Background reconciliation
	sched := scheduler.NewScheduler(reconcileService)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// HTTP server
	server := http.NewServer(cfg, lifecycleService, catalogService)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("Server starting on %s", addr)
		if err := server.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Server exited")
}
