package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/metheus/shell/internal/agent"
	"github.com/metheus/shell/internal/config"
	"github.com/metheus/shell/internal/events"
	"github.com/metheus/shell/internal/host"
	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/miniapp"
	"github.com/metheus/shell/internal/monitoring"
	"github.com/metheus/shell/internal/server"
	"github.com/metheus/shell/internal/settings"
	"github.com/metheus/shell/internal/shared/types"
	"github.com/metheus/shell/internal/surface"
)

func main() {
	cfg := config.LoadOrDefault()

	port := flag.String("port", cfg.Server.Port, "Server port")
	manifestDir := flag.String("manifests", cfg.MiniApp.ManifestDir, "Mini-app manifest directory")
	flag.Parse()
	cfg.Server.Port = *port
	cfg.MiniApp.ManifestDir = *manifestDir

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	metrics := monitoring.New()
	hub := events.NewHub(logger.Named("events"), metrics)
	defer hub.Close()

	// The in-memory host stands in until a platform binding registers
	// real windows. Every manager talks to the same Host interface.
	h := host.NewFakeWithPrimary(types.Point{})

	surfaces := surface.NewManager(h, logger.Named("surface")).
		WithMetrics(metrics).
		WithEvents(hub)

	miniapps := miniapp.NewManager(h, logger.Named("miniapp")).
		WithMetrics(metrics).
		WithEvents(hub)
	if cfg.MiniApp.ProbeSources {
		miniapps = miniapps.WithResolver(miniapp.NewResolver(logger.Named("resolver"), cfg.MiniApp.ProbeTimeout))
	}
	if cfg.MiniApp.ManifestDir != "" {
		if _, err := miniapps.LoadManifests(cfg.MiniApp.ManifestDir); err != nil {
			logger.Warn("Manifest directory unreadable", zap.Error(err))
		}
	}

	agents := agent.NewRunner(logger.Named("agent")).
		WithMetrics(metrics).
		WithEvents(hub).
		WithTimeout(cfg.Agent.Timeout)

	store := settings.NewStore()

	srv := server.New(cfg, server.Deps{
		Surfaces: surfaces,
		MiniApps: miniapps,
		Agents:   agents,
		Settings: store,
		Hub:      hub,
		Metrics:  metrics,
		Log:      logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()
	logger.Info("Shell service listening", zap.String("port", cfg.Server.Port))

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully")
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
