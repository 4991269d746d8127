package http

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/service"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/storage"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	kernel   *kernel.Kernel
	registry *service.Registry
	store    storage.Store
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	maxBody int64

	// mu orders invocations and their snapshot flush against direct
	// kernel reads made by the handlers.
	mu sync.Mutex
}

// Option configures Handlers.
type Option func(*Handlers)

// WithMaxBodyBytes caps the size of an invoke request body.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// NewHandlers creates a new handler set. A nil store disables snapshot
// flushing; a nil metrics collector disables flush metrics.
func NewHandlers(
	k *kernel.Kernel,
	registry *service.Registry,
	store storage.Store,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	opts ...Option,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		kernel:   k,
		registry: registry,
		store:    store,
		metrics:  metrics,
		logger:   logger.Named("http"),
		maxBody:  utils.MaxJSONSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "online",
		"service":  "kernel",
		"hostname": h.kernel.Config().Hostname,
		"version":  Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	h.mu.Lock()
	stats := h.kernel.Stats()
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"boot_id":          stats.BootID,
		"kernel":           stats,
		"service_registry": h.registry.Stats(),
		"persistence":      gin.H{"enabled": h.store != nil},
	})
}

// ListModules lists the registered boundary modules
func (h *Handlers) ListModules(c *gin.Context) {
	var category *types.Category
	if s := c.Query("category"); s != "" {
		cat := types.Category(s)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"modules": h.registry.List(category),
		"stats":   h.registry.Stats(),
	})
}

// MetricsSummary returns the JSON digest of the Prometheus counters
func (h *Handlers) MetricsSummary(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics are disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
