package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whiteboard/internal/app"
	"whiteboard/internal/handlers"
	"whiteboard/internal/metrics"
	"whiteboard/internal/middleware"
	"whiteboard/internal/object"
	"whiteboard/internal/room"
	"whiteboard/internal/session"
	"whiteboard/internal/transport"
	"whiteboard/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (or "+app.ConfigEnvVar+")")
	addr := flag.String("addr", "", "listen address, overrides config")
	logLevel := flag.String("log-level", "", "debug, info, warn or error, overrides config")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := app.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rooms := room.NewManager()
	metrics.RegisterRoomGauge(reg, rooms.Count)

	limits := middleware.NewLimits(cfg.MaxElements, cfg.MaxMessageSize, cfg.MessagesPerSecond, cfg.MessageBurst)
	ipLimiter := middleware.NewIPRateLimit(cfg.ConnectionsPerMinute, cfg.ConnectionBurst)

	hub := transport.NewHub(logger, m)
	svc := session.NewService(hub, session.Config{
		Rooms:     rooms,
		Members:   user.NewTracker(),
		Validator: object.NewValidator(),
		Limits:    limits,
		Metrics:   m,
		Logger:    logger,
	})
	router := handlers.NewMessageRouter(svc, logger)

	wsHandler := transport.NewHandler(hub, router, svc, transport.HandlerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Limits:         limits,
		IPLimiter:      ipLimiter,
		SendBuffer:     cfg.SendBuffer,
		Logger:         logger,
	})

	go svc.RunJanitor(ctx, cfg.SweepInterval, cfg.RoomIdleTTL)
	go cleanupLimiters(ctx, ipLimiter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newMux(cfg, wsHandler, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("hub shutdown", "err", err)
	}

	logger.Info("server.shutdown.complete", "rooms", rooms.Count())
}

// newMux wires the WebSocket endpoint plus health and metrics routes.
func newMux(cfg app.Config, ws http.Handler, reg *prometheus.Registry) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/healthz", c.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	mux.Handle("/metrics", c.Handler(metrics.Handler(reg)))
	return mux
}

// cleanupLimiters drops per-IP limiters unused for an hour
func cleanupLimiters(ctx context.Context, ipLimiter *middleware.IPRateLimit) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ipLimiter.Cleanup(time.Hour)
		}
	}
}
