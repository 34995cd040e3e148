package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/net/http2"

	rag_http "course-advisor/internal/adapter/rag_http"
	"course-advisor/internal/di"
	"course-advisor/internal/infra/config"
	"course-advisor/internal/infra/logger"
	"course-advisor/internal/infra/telemetry"
)

var version = "dev"

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Telemetry
	shutdownTelemetry, err := telemetry.InitProvider(context.Background(), telemetry.Config{
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.OTel.Environment,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init telemetry: %v\n", err)
		os.Exit(1)
	}

	// 3. Initialize Logger
	log := logger.NewWithOTel(cfg.OTel.ServiceName, cfg.LogLevel, cfg.OTel.Enabled)
	slog.SetDefault(log)

	// 4. Initialize Agent. The server still starts when this fails so that
	// /health can report the agent as not initialized.
	var dispatcher rag_http.QueryDispatcher
	var counter rag_http.DocumentCounter
	components, err := di.NewApplicationComponents(context.Background(), cfg, log)
	if err != nil {
		log.Error("agent_init_failed", slog.String("error", err.Error()))
	} else {
		dispatcher = components.Dispatcher
		counter = components.Index
		defer components.Close()
	}

	// 5. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	e.Use(otelecho.Middleware(cfg.OTel.ServiceName))

	// 6. Register Handlers
	handler, err := rag_http.NewHandler(dispatcher, counter, log)
	if err != nil {
		log.Error("handler_init_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	handler.Register(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// 7. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting", slog.String("addr", addr), slog.Bool("h2c", cfg.H2C))
		var err error
		if cfg.H2C {
			err = e.StartH2CServer(addr, &http2.Server{})
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server_shutdown_failed", slog.String("error", err.Error()))
	}
	if err := shutdownTelemetry(ctx); err != nil {
		log.Error("telemetry_shutdown_failed", slog.String("error", err.Error()))
	}
}
