package http

import (
	"github.com/gin-gonic/gin"
)

// Routes mounts every endpoint on r.
func (h *Handlers) Routes(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/modules", h.ListModules)

	kernelGroup := r.Group("/kernel")
	{
		kernelGroup.POST("/invoke", h.Invoke)
		kernelGroup.GET("/snapshot", h.Snapshot)
	}

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
		r.GET("/metrics/summary", h.MetricsSummary)
	}
}
