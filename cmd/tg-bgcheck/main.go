package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-bgcheck/internal/blacklist"
	"tg-bgcheck/internal/bot"
	"tg-bgcheck/internal/checker"
	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/crash"
	"tg-bgcheck/internal/handler"
	"tg-bgcheck/internal/logger"
	"tg-bgcheck/internal/roblox"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")
	crash.SetupCrashHandler()

	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the core: directory client, index registry, refresher, checker
	client := roblox.NewClient(cfg.Roblox)
	registry := blacklist.NewRegistry(blacklist.SheetNames(cfg.Sources))
	refresher := blacklist.NewRefresher(cfg.Sources, registry)
	checkerService := checker.New(cfg, client, registry, refresher)

	// Initial refresh runs in the background; a failed source keeps its
	// empty index and /reload can retry it later.
	crash.SafeGoroutine("initial-refresh", func() {
		checkerService.RefreshAll(ctx)
	})

	botService, server, err := bot.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	handler.Initialize(cfg, checkerService)

	crash.SafeGoroutine("http-server", func() {
		if err := server.Start(); err != nil {
			logger.Fatalf("HTTP server error: %v", err)
		}
	})

	// Give server time to start
	time.Sleep(500 * time.Millisecond)
	log.Println("HTTP server is ready, starting bot handler...")

	handler.SetupMessageHandlers(botService.Handler, botService.Bot)
	botService.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for signal
	sig := <-sigChan
	logger.Infof("Received signal: %v, shutting down...", sig)

	botService.Stop()

	// Gracefully shutdown server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}
