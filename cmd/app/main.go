package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SignalForge/internal/di"
	"SignalForge/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	once := flag.Bool("once", false, "run a single generation pass and exit")
	schedule := flag.Bool("schedule", false, "run on the configured cron schedule")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("dotenv load failed: %v", err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	switch {
	case *once:
		cfg.Scheduler.Mode = "once"
	case *schedule:
		cfg.Scheduler.Mode = "schedule"
	}

	log.Printf("env=%s mode=%s history=%s", cfg.Environment, cfg.Scheduler.Mode, cfg.History.Backend)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	code := 0
	if cfg.Scheduler.Mode == "once" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = app.RunOnce(ctx)
		stop()
	} else {
		// blocks until signal
		err = app.Run()
	}
	if err != nil {
		log.Printf("app error: %v", err)
		code = 1
	}

	cleanup()
	os.Exit(code)
}
