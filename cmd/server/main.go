package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/loadboard/loadboard/pkg/config"
	"github.com/loadboard/loadboard/pkg/forecast"
	"github.com/loadboard/loadboard/pkg/live"
	"github.com/loadboard/loadboard/pkg/server"
	"github.com/loadboard/loadboard/pkg/server/monitor"
	"github.com/loadboard/loadboard/pkg/store"
)

func main() {
	log.Println("🚀 Starting Loadboard server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("⚙️  Configuration: store=%s models=%s cache=%s port=%d",
		cfg.StorePath, cfg.ModelsDir, cfg.CacheDir, cfg.Port)

	// Backing series store
	st := store.New(cfg.StorePath)
	storeMonitor := monitor.NewStoreMonitor(st.Path(), st.BackupPath())
	if !storeMonitor.IsHealthy() {
		log.Printf("⚠️  Leftover backup found at %s: a previous write failed", st.BackupPath())
	}

	// Model artifacts and forecast result cache
	registry := forecast.NewRegistry(cfg.ModelsDir)
	cache, err := forecast.NewCache(forecast.CacheConfig{
		Path: cfg.CacheDir,
		TTL:  config.CacheTTL,
	})
	if err != nil {
		log.Fatalf("❌ Failed to open forecast cache: %v", err)
	}
	defer cache.Close()
	log.Println("💾 Forecast cache initialized")

	// The binary ships with the persistence baseline; a real pipeline binding
	// replaces it through the forecast.Pipeline interface.
	orch := forecast.New(st, registry, forecast.Persistence{}, cache)

	// WebSocket hub for live dashboard updates
	hub := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	log.Println("📡 WebSocket hub started")

	// Router and HTTP server
	router := mux.NewRouter()
	handler := server.NewHandler(st, registry, orch, hub, storeMonitor)
	handler.SetupRoutes(router, strconv.Itoa(cfg.Port))

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	go func() {
		log.Printf("🌐 Server starting on http://localhost:%d", cfg.Port)
		log.Println("✅ Server ready to accept requests")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutdown signal received...")
	cancel() // stops hub.Run()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server shutdown warning: %v", err)
	}

	// Bounded wait for background goroutines
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("✅ All background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("⚠️  Some background tasks did not stop in time (forcing exit)")
	}

	log.Println("👋 Loadboard server exited cleanly")
}
