package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docfront/internal/compose"
	"docfront/internal/config"
	"docfront/internal/downstream"
	"docfront/internal/fanout"
	handlers "docfront/internal/http/handler"
	"docfront/internal/http/middleware"
	"docfront/internal/otel"
	"docfront/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.LoadLocation()

	logger := newLogger(loc)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Error("tracing_init_failed", "error", err.Error())
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fetchMetrics, err := fanout.NewMetrics(reg)
	if err != nil {
		logger.Error("metrics_init_failed", "error", err.Error())
		os.Exit(1)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Error("metrics_init_failed", "error", err.Error())
		os.Exit(1)
	}

	// One pooled client shared by every request and downstream service
	client := downstream.New(cfg.Services, cfg.HTTPClient)
	defer client.Close()

	exec := fanout.New(cfg.RequestTimeout, fanout.WithLogger(logger), fanout.WithMetrics(fetchMetrics))
	frontSvc := service.NewFrontService(client, exec, service.Options{
		Keyword:  compose.KeywordPolicy{AllowSpace: cfg.Search.AllowSpace},
		Location: loc,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.LoggerWithWriter(os.Stdout, loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	handlers.RegisterRoutes(app, frontSvc)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("server_listening",
			"addr", addr,
			"request_timeout", cfg.RequestTimeout.String(),
			"paper_service", cfg.Services.Paper.BaseURL(),
		)
		if err := app.Listen(addr); err != nil {
			logger.Error("server_failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil {
		logger.Error("server_shutdown_failed", "error", err.Error())
	}
	if err := shutdownTracing(sctx); err != nil {
		logger.Error("tracing_shutdown_failed", "error", err.Error())
	}
	logger.Info("server_stopped")
}

// newLogger returns the JSON application logger, with the timestamp under
// "ts" in loc to line up with the access log.
func newLogger(loc *time.Location) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	}))
}
