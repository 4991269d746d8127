package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/AgentOS/kernel/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/service"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/storage"
)

// Server owns the kernel, its dispatcher and the HTTP boundary.
type Server struct {
	router   *gin.Engine
	http     *http.Server
	kernel   *kernel.Kernel
	registry *service.Registry
	handlers *api.Handlers
	store    storage.Store
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger *logging.Logger
	store  storage.Store
}

// WithLogger replaces the logger built from the logging config.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore replaces the store built from the storage config.
func WithStore(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

// NewServer boots a kernel, restores the last snapshot from the
// configured store and wires the HTTP routes.
func NewServer(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Initializing kernel server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("hostname", cfg.Kernel.Hostname),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("kernel", logger.Logger)

	k, err := kernel.New(kernel.Config{
		Hostname:           cfg.Kernel.Hostname,
		DefaultUser:        cfg.Kernel.DefaultUser,
		HistorySize:        cfg.Kernel.HistorySize,
		SudoTimeout:        cfg.Kernel.SudoTimeout.Std(),
		PasswordIterations: cfg.Kernel.PasswordIterations,
		MaxVFSSize:         cfg.Kernel.MaxVFSSize,
	}, kernel.WithLogger(logger.Logger))
	if err != nil {
		tracer.Close()
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = storage.Open(ctx, storage.Config{
			Backend:         storage.Backend(cfg.Storage.Backend),
			Path:            cfg.Storage.Path,
			Bucket:          cfg.Storage.Bucket,
			Key:             cfg.Storage.Key,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			tracer.Close()
			return nil, err
		}
	}

	if err := restore(ctx, k, store, logger.Logger); err != nil {
		store.Close()
		tracer.Close()
		return nil, err
	}

	registry := service.NewRegistry(
		service.WithLogger(logger.Logger),
		service.WithObserver(metrics),
	)
	if err := providers.RegisterAll(registry, k); err != nil {
		store.Close()
		tracer.Close()
		return nil, err
	}
	logger.Info("Registered kernel modules", zap.Any("stats", registry.Stats()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(k, registry, store, metrics, logger.Logger,
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	handlers.Routes(router)

	stats := k.Stats()
	metrics.SetVFSUsage(stats.Nodes, stats.TotalSize)

	logger.Info("Server initialized successfully", zap.String("boot_id", k.BootID()))

	return &Server{
		router:   router,
		http:     &http.Server{Addr: cfg.Server.Addr(), Handler: router},
		kernel:   k,
		registry: registry,
		handlers: handlers,
		store:    store,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// restore loads the last snapshot into k. A missing snapshot leaves the
// freshly booted state in place.
func restore(ctx context.Context, k *kernel.Kernel, store storage.Store, logger *zap.Logger) error {
	data, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		logger.Info("No snapshot found, starting from a fresh filesystem")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := utils.NewJSONSizeValidator(utils.MaxSnapshotSize).ValidateJSON(data); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if err := k.Restore(data); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	logger.Info("Restored snapshot",
		zap.Int("bytes", len(data)),
		zap.String("digest", utils.Short(utils.DefaultHasher().Hash(data))))
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Kernel returns the served kernel.
func (s *Server) Kernel() *kernel.Kernel {
	return s.kernel
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, writes a final snapshot and
// releases the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	if err := s.handlers.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	s.tracer.Close()

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("Shutdown finished with errors", zap.Error(err))
		return err
	}
	s.logger.Info("Shutdown complete")
	_ = s.logger.Sync()
	return nil
}
