package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screensync/backend/bootstrap"
	"github.com/screensync/backend/conf"
	"github.com/screensync/backend/http"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/subm/submhttp"
)

func main() {
	cfg, err := conf.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDeps(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}

	submHandler := submhttp.NewSubmHttpHandler(deps.Processor, deps.Lister, deps.Cache)
	submHandler.SetMaxMemory(cfg.Http.MaxFormMemoryMb << 20)
	submHandler.SetMaxBodyBytes(cfg.Http.MaxBodyMb << 20)
	if deps.MemBlobs != nil {
		submHandler.ServeBlobs(deps.MemBlobs)
	}

	httpServer := http.NewHttpServer(submHandler, http.Options{
		Env:            cfg.Env,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		LogLevel:       logger.ParseLevel(cfg.LogLevel),
		Tracing:        deps.Tracing,
		ServiceName:    cfg.Tracing.ServiceName,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "address", cfg.Http.Addr)
		errCh <- httpServer.Start(cfg.Http.Addr)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			log.Error("server stopped with error", "error", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server", "error", err)
	}
	if err := deps.Close(shutdownCtx); err != nil {
		log.Error("failed to close dependencies", "error", err)
	}
}
