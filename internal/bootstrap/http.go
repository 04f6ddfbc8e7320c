package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/darahconnect/darah-dashboard/config"
	httpx "github.com/darahconnect/darah-dashboard/internal/http"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listener error if the server fails after startup. Optional.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:        logger,
		Services:      routerServices(appCfg, cfg.Services, logger),
		Observability: cfg.Services.Observability,
	})

	return startServer(serverOptions{
		Logger:  logger,
		Handler: handler,
		HTTP:    appCfg.HTTP,
		ErrCh:   cfg.ErrCh,
	})
}

func routerServices(cfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		SessionTTL:   cfg.Cache.SessionTTL,
		CookieSecure: cfg.HTTP.CookieSecure,
		MaxPageSize:  cfg.Listing.MaxPageSize,
		IsDev:        cfg.IsDev,
		Logger:       logger,
	}
	// Interface fields stay nil rather than holding typed nil pointers.
	if services.Dashboard != nil {
		rs.Dashboard = services.Dashboard
	}
	if services.Sessions != nil {
		rs.Sessions = services.Sessions
	}
	if services.Health != nil {
		rs.Health = services.Health.Handler()
	}
	if services.Observability.Recorder != nil && services.Observability.MetricsConfig.PrometheusEnabled {
		rs.Metrics = services.Observability.Recorder.Handler()
	}
	return rs
}

type httpHandlerConfig struct {
	Logger        *slog.Logger
	Services      httpx.RouterServices
	Observability ObservabilityContainer
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(cfg.Services)

	// Order: Recover -> Logging -> Metrics -> Router
	h := router
	if cfg.Observability.Recorder != nil {
		h = cfg.Observability.Recorder.Middleware(h)
	}
	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

type serverOptions struct {
	Logger  *slog.Logger
	Handler http.Handler
	HTTP    config.HTTPConfig
	ErrCh   chan<- error
}

func startServer(opts serverOptions) *http.Server {
	addr := opts.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           opts.Handler,
		ReadHeaderTimeout: opts.HTTP.ReadHeaderTimeout,
		WriteTimeout:      opts.HTTP.WriteTimeout,
		IdleTimeout:       opts.HTTP.IdleTimeout,
	}

	go func() {
		opts.Logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.Logger.Error("HTTP server failed", "error", err)
			if opts.ErrCh != nil {
				select {
				case opts.ErrCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
