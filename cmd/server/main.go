package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML or TOML config file (overlays environment)")
	port := flag.String("port", "", "Server port (overrides config)")
	backend := flag.String("storage", "", "Snapshot backend: memory, file, badger, s3")
	storagePath := flag.String("storage-path", "", "Snapshot file or badger directory")
	dev := flag.Bool("dev", false, "Development logging (console, debug level)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
