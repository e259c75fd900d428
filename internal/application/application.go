package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/constants/internal/api"
	"github.com/eugenenazirov/constants/internal/config"
	"github.com/eugenenazirov/constants/internal/constant"
	"github.com/eugenenazirov/constants/internal/registry"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	registry  *registry.Registry
	constants *constant.Node
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// New binds the configured constants directory and wires the HTTP server.
// Binding failures are returned so the caller can abort startup.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	reg := registry.New(logger)

	opts := []registry.Option{registry.WithEnv(cfg.Env)}
	if cfg.ReservedNames {
		opts = append(opts, registry.WithReservedNames(constant.DefaultReservedNames()...))
	}
	root, err := reg.Bind(cfg.ConstantsDir, cfg.BindingName, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind constants: %w", err)
	}

	handler := api.NewHandler(reg, cfg.BindingName)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		registry:  reg,
		constants: root,
		handler:   handler,
		router:    router,
		logger:    logger,
		server:    NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Constants returns the root node bound at startup.
func (a *App) Constants() *constant.Node {
	return a.constants
}

// Registry returns the registry holding the bound constants.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
