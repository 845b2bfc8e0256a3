package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iconidentify/instafetch/internal/api"
	"github.com/iconidentify/instafetch/internal/api/handler"
	"github.com/iconidentify/instafetch/internal/bot"
	"github.com/iconidentify/instafetch/internal/config"
	"github.com/iconidentify/instafetch/internal/instagram"
	"github.com/iconidentify/instafetch/internal/pipeline"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// providerPool adapts the instagram client pool to the pipeline's
// provider interface.
type providerPool struct {
	pool *instagram.Pool
}

func (p providerPool) Pick() pipeline.Provider { return p.pool.Pick() }

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("instafetch %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting instafetch",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load .env if present, then configuration. A missing BOT_TOKEN is
	// fatal here, before any handler is registered.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Storage.BasePath, 0755); err != nil {
		logger.Error("failed to create storage directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	pool := instagram.NewPool(cfg.Download.Timeout)
	workspaces := pipeline.NewWorkspaceManager(cfg.Storage.BasePath, logger)
	fetcher := pipeline.NewFetcher(providerPool{pool}, cfg.Download, logger)

	tg := bot.New(cfg.Bot, logger)
	pipe := pipeline.New(workspaces, fetcher, tg, logger)
	tg.SetHandler(pipe)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional operational endpoint
	var healthSrv *http.Server
	if cfg.Health.Addr != "" {
		router := api.NewRouter(handler.NewHealthHandler(pipe))
		healthSrv = &http.Server{
			Addr:         cfg.Health.Addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("starting health endpoint", "addr", healthSrv.Addr)
			if err := healthSrv.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("health endpoint error", "error", err)
			}
		}()
	}

	// Run the receive session under the supervisor until a signal or a
	// fatal transport error.
	supervisor := bot.NewSupervisor(tg.Session, cfg.Bot, logger)
	runErr := supervisor.Run(ctx)

	logger.Info("shutting down")

	if healthSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("health endpoint shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("exiting on fatal error", "error", runErr)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
