package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/subm/submhttp"
	"github.com/screensync/backend/tracing"
)

type Options struct {
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
	Tracing        bool
	ServiceName    string
}

type HttpServer struct {
	router *chi.Mux
	server *http.Server
	stats  *statsLogger
}

func NewHttpServer(submHandler *submhttp.SubmHttpHandler, opts Options) *HttpServer {
	router := chi.NewRouter()

	httpLogger := httplog.NewLogger("screensync", httplog.Options{
		LogLevel:         opts.LogLevel,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": opts.Env,
		},
	})
	router.Use(httplog.RequestLogger(httpLogger))
	router.Use(logger.RequestID)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           3000,
	}))

	if opts.Tracing {
		router.Use(tracing.NewTracingMiddleware(opts.ServiceName).Middleware)
	}

	stats := newStatsLogger()
	router.Use(stats.middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	submHandler.RegisterRoutes(router)

	return &HttpServer{router: router, stats: stats}
}

func (httpserver *HttpServer) Handler() http.Handler {
	return httpserver.router
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (httpserver *HttpServer) Start(address string) error {
	httpserver.server = &http.Server{
		Addr:              address,
		Handler:           httpserver.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go httpserver.stats.periodicFlush()

	err := httpserver.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (httpserver *HttpServer) Shutdown(ctx context.Context) error {
	httpserver.stats.stop()
	if httpserver.server == nil {
		return nil
	}
	return httpserver.server.Shutdown(ctx)
}
