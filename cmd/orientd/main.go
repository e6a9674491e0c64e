package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orientd/internal/audit"
	"github.com/orientd/internal/commands"
	"github.com/orientd/internal/config"
	"github.com/orientd/internal/jsonrpc"
	"github.com/orientd/internal/logging"
	"github.com/orientd/internal/maintenance"
	"github.com/orientd/internal/orientation"
	"github.com/orientd/internal/surface"
)

func main() {
	log.Println("Starting orientd...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser := logging.Setup(cfg.Logging)

	supported, err := cfg.InitialSupported()
	if err != nil {
		log.Fatalf("Invalid initial supported orientations: %v", err)
	}
	page, err := cfg.InitialOrientation()
	if err != nil {
		log.Fatalf("Invalid initial orientation: %v", err)
	}

	log.Printf("Surface starts %s/%s, queue size %d", supported, page, cfg.Dispatch.QueueSize)

	sf := surface.New(supported, page)
	sf.OnChange(func(prev, next surface.Supported, revision uint64) {
		log.Printf("Supported orientations changed: %s -> %s (revision %d)", prev, next, revision)
	})
	sf.OnRotate(func(phase surface.RotatePhase, prev, next surface.PageOrientation) {
		if phase == surface.RotateDid {
			log.Printf("Physical orientation changed: %s -> %s", prev, next)
		}
	})
	ui := surface.NewUIContext(sf, cfg.Dispatch.QueueSize)

	var auditor commands.Auditor
	var auditLogger *audit.Logger
	if cfg.Audit.File != "" {
		auditLogger, err = audit.NewLogger(cfg.Audit)
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		auditor = auditLogger
		log.Printf("Audit log: %s", auditLogger.FilePath())
	}

	translator := orientation.NewTranslator(ui)
	if cfg.Dispatch.EventQueueSize > 0 {
		if err := translator.EnableEvents(cfg.Dispatch.EventQueueSize); err != nil {
			log.Fatalf("Failed to enable orientation events: %v", err)
		}
	}

	// Create JSON-RPC HTTP server
	jsonrpcServer, err := jsonrpc.NewServer(cfg, translator, auditor)
	if err != nil {
		log.Fatalf("Failed to create JSON-RPC server: %v", err)
	}
	log.Printf("Syscalls: %v", jsonrpcServer.Commands().Registry().List())
	httpMux := http.NewServeMux()
	httpMux.HandleFunc(jsonrpc.Path, jsonrpcServer.Handler())

	// Determine HTTP port based on dev mode
	httpPort := cfg.Network.HTTP.Port
	if cfg.Network.HTTP.DevMode {
		httpPort = 8080
		log.Println("Development mode: using port 8080")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", httpPort),
		Handler:      httpMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	maintenanceServer := maintenance.NewServer(cfg, ui)

	go func() {
		log.Printf("Starting HTTP server on port %d", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting maintenance TCP server on port %d", cfg.Network.Maintenance.Port)
		if err := maintenanceServer.ListenAndServe(); err != nil {
			log.Fatalf("Maintenance server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := maintenanceServer.Close(); err != nil {
		log.Printf("Maintenance server shutdown error: %v", err)
	}

	// In-flight syscalls have returned; pending ones fail with ErrClosed
	if err := ui.Close(); err != nil {
		log.Printf("UI context shutdown error: %v", err)
	}

	if auditLogger != nil {
		if err := auditLogger.Close(); err != nil {
			log.Printf("Audit log close error: %v", err)
		}
	}

	log.Println("Servers stopped")
	logCloser.Close()
}
