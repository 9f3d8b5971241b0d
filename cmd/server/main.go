package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/config"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/server"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
)

func main() {
	// Parse flags; flags override environment variables
	port := flag.String("port", "", "Server port")
	redisAddr := flag.String("redis", "", "Redis address (empty selects the in-memory store)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *redisAddr != "" {
		cfg.Store.RedisAddr = *redisAddr
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	// The in-process registry stands in for the host document API.
	reg := registry.NewMemory()

	srv, err := server.NewServer(context.Background(), cfg, reg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
