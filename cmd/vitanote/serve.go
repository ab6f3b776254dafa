package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/config"
	vhttp "github.com/wosledon/vitanote/internal/http"
	"github.com/wosledon/vitanote/internal/logging"
	"github.com/wosledon/vitanote/internal/services"
	"github.com/wosledon/vitanote/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the VitaNote HTTP API.

Configuration comes from built-in defaults, the --config file and
VITANOTE_* environment variables. When a config file is given it is
watched and a changed logging.level is applied without a restart.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

// run starts the server and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes telemetry and the logger
//  3. Opens the store and event publisher and wires services
//  4. Starts the config watcher and the HTTP server
//  5. Shuts everything down on cancellation
func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logCfg, err := logging.FromAppConfig(cfg.Logging, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Underlying()

	if degraded, derr := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Error(derr))
	}

	reg, closeServices, err := services.Build(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeServices(); err != nil {
			logger.Warn(ctx, "closing services", zap.Error(err))
		}
	}()

	srv, err := vhttp.NewServer(reg, zl.Named("http"), &vhttp.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		BodyLimit:        cfg.Server.BodyLimit,
		CORSOrigins:      cfg.Server.CORSOrigins,
		TrustedProxies:   cfg.Server.TrustedProxies,
		ServiceName:      cfg.Observability.ServiceName,
		Version:          version,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:   cfg.RateLimit.Burst,
	})
	if err != nil {
		return err
	}

	if configPath != "" {
		go watchConfig(ctx, logger)
	}

	logger.Info(ctx, "vitanote starting",
		zap.String("version", version),
		zap.String("database", cfg.Database.Path),
		zap.Bool("events", cfg.Events.NATSURL != ""),
		zap.Bool("telemetry", tel.Enabled()),
	)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info(context.Background(), "server shutdown complete")
	return nil
}

// watchConfig applies logging.level changes from the config file.
func watchConfig(ctx context.Context, logger *logging.Logger) {
	err := config.Watch(ctx, configPath, func(cfg *config.Config) {
		level, err := logging.LevelFromString(cfg.Logging.Level)
		if err != nil {
			logger.Warn(ctx, "ignoring invalid log level", zap.String("level", cfg.Logging.Level))
			return
		}
		if level != logger.Level() {
			logger.SetLevel(level)
			logger.Info(ctx, "log level changed", zap.String("level", level.String()))
		}
	}, func(err error) {
		logger.Warn(ctx, "config reload failed", zap.Error(err))
	})
	if err != nil {
		logger.Warn(ctx, "config watcher stopped", zap.Error(err))
	}
}
