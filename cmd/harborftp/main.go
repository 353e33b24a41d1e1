package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harborfs/harborftp/internal/logger"
	ftpproto "github.com/harborfs/harborftp/internal/protocol/ftp"
	adapterftp "github.com/harborfs/harborftp/pkg/adapter/ftp"
	"github.com/harborfs/harborftp/pkg/config"
	"github.com/harborfs/harborftp/pkg/server"
	"github.com/harborfs/harborftp/pkg/stats"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := setupLogging(&cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	fmt.Println("HarborFTP - FTP Server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics first so the collectors exist before anything records.
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	users, err := config.CreateUserStore(ctx, &cfg.Users)
	if err != nil {
		log.Fatalf("Failed to create user store: %v", err)
	}
	defer func() {
		if err := users.Close(); err != nil {
			logger.Error("Error closing user store: %v", err)
		}
	}()
	logger.Info("User store initialized: type=%s, accounts=%d", cfg.Users.Type, len(cfg.Users.Accounts))

	views, err := config.CreateViewFactory(ctx, &cfg.VFS)
	if err != nil {
		log.Fatalf("Failed to create filesystem backend: %v", err)
	}
	logger.Info("Filesystem backend initialized: type=%s", cfg.VFS.Type)

	hooks, err := config.CreateFtplets(cfg.Ftplets)
	if err != nil {
		log.Fatalf("Failed to create ftplets: %v", err)
	}

	statistics := stats.New(stats.Limits{
		MaxLogins:          cfg.Limits.MaxLogins,
		MaxAnonymousLogins: cfg.Limits.MaxAnonymousLogins,
	}, metricsResult.FTPMetrics)

	engine := ftpproto.NewServerContext(users, views, statistics, hooks, metricsResult.FTPMetrics)

	ftpAdapter, err := adapterftp.New(cfg.Adapters.FTP, engine)
	if err != nil {
		log.Fatalf("Failed to create FTP adapter: %v", err)
	}

	srv := server.New()
	if err := srv.AddAdapter(ftpAdapter); err != nil {
		log.Fatalf("Failed to register FTP adapter: %v", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", ftpAdapter.Port())

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil && err != context.Canceled {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil && err != context.Canceled {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

// setupLogging applies the logging configuration: level, then output
// destination (stdout, stderr, or a file path).
func setupLogging(cfg *config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)

	switch cfg.Output {
	case "", "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(f)
	}
	return nil
}
