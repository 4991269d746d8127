package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/utils"
)

// Invoke dispatches one envelope call. Kernel failures are reported in
// the envelope with status 200; only malformed requests get 4xx.
func (h *Handlers) Invoke(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	var req types.InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge,
				types.Failure(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		c.JSON(http.StatusBadRequest, types.Failure("invalid request: "+err.Error()))
		return
	}

	if err := utils.ValidateToolID(req.ToolID()); err != nil {
		c.JSON(http.StatusBadRequest, types.Failure(err.Error()))
		return
	}

	ctx := c.Request.Context()
	if req.Context != nil && req.Context.RequestID == "" {
		req.Context.RequestID = string(tracing.GetTraceID(ctx))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result := h.registry.Invoke(ctx, req)
	if result.Success {
		if tool, ok := h.registry.Tool(req.ToolID()); ok && tool.Mutates {
			// The call already took effect; a failed flush is only logged.
			if err := h.flushLocked(context.WithoutCancel(ctx)); err != nil {
				h.logger.Error("snapshot flush failed",
					zap.String("tool", req.ToolID()),
					zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

// Snapshot returns the current state document
func (h *Handlers) Snapshot(c *gin.Context) {
	h.mu.Lock()
	data, err := h.kernel.Snapshot()
	h.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.FromError(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Flush writes the current state to the store.
func (h *Handlers) Flush(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushLocked(ctx)
}

func (h *Handlers) flushLocked(ctx context.Context) error {
	stats := h.kernel.Stats()
	if h.metrics != nil {
		h.metrics.SetVFSUsage(stats.Nodes, stats.TotalSize)
	}
	if h.store == nil {
		return nil
	}

	data, err := h.kernel.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot kernel: %w", err)
	}

	var timer *monitoring.Timer
	if h.metrics != nil {
		timer = monitoring.NewTimer(h.metrics)
	}
	err = h.store.Save(ctx, data)
	if timer != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		timer.Stop(status, len(data))
	}
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	h.logger.Debug("snapshot flushed", zap.Int("bytes", len(data)))
	return nil
}
