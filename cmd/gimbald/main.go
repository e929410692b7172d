package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gimbal-control/internal/api"
	"gimbal-control/internal/config"
	"gimbal-control/internal/dispatcher"
	"gimbal-control/internal/logger"
	"gimbal-control/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("log-file", "", "Optional log file path")
	flag.Parse()

	if err := logger.Init(*logFile, 10, 3, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Get().Close()

	cfgManager := config.NewManager(*configPath)
	if err := cfgManager.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal("failed to load config: %v", err)
		}
		logger.Warn("config file %s not found, creating default", *configPath)
		if err := cfgManager.Update(config.Config{Port: 8080}); err != nil {
			logger.Fatal("failed to create default config: %v", err)
		}
	}

	cfg := cfgManager.Get()
	logger.Printf("starting gimbald on port %d with %d configured devices", cfg.Port, len(cfg.Devices))

	outbound := make(chan snapshot.Snapshot, 4)
	disp, err := dispatcher.NewDispatcher(cfgManager, outbound)
	if err != nil {
		logger.Fatal("failed to build dispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := disp.Start(ctx); err != nil {
		logger.Fatal("failed to connect configured devices: %v", err)
	}

	hub := api.NewHub()
	go hub.Run()

	go func() {
		for snap := range outbound {
			hub.Broadcast("snapshot", snap)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- disp.Run(ctx)
	}()

	handler := api.NewHandler(hub, disp)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed: %v", err)
		}
	}()

	logger.Printf("server started at http://localhost:%d", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Println("shutting down...")
		disp.Submit(dispatcher.Operation{Type: dispatcher.OpShutdown})
		<-runErr
	case err := <-runErr:
		// A non-nil error here is a failed SaveDefaultControls persist,
		// which spec requires to terminate the process rather than just
		// the dispatcher loop.
		if err != nil {
			logger.Fatal("dispatcher terminated: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error: %v", err)
	}

	logger.Println("server stopped")
}
