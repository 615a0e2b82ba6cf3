package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wudi/paysim/internal/config"
	"github.com/wudi/paysim/internal/engine"
	"github.com/wudi/paysim/internal/logging"
	"github.com/wudi/paysim/internal/server"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("paysim %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Resolve configuration: defaults, optional file, environment overrides.
	// Invalid values fail here, never per-request.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *validateOnly {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if logCloser != nil {
		defer logCloser.Close()
	}
	logging.SetGlobal(logger)

	logging.Info("Starting payment provider simulator",
		zap.String("version", version),
		zap.String("provider_id", cfg.ProviderID),
		zap.Int("port", cfg.ListenPort),
		zap.Float64("tokens_per_second", cfg.TokensPerSecond),
		zap.Int("burst_capacity", cfg.BurstCapacity),
		zap.Bool("breaker_enabled", cfg.BreakerEnabled),
	)

	eng := engine.New(cfg)
	srv := server.New(cfg, eng, version, buildTime)

	if err := srv.Run(); err != nil {
		logging.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
}
