package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/id"
)

func TestStartSpanInheritsTrace(t *testing.T) {
	tracer := New("kernel", zap.NewNop())
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "outer")
	assert.True(t, id.IsValid(string(parent.TraceID)))
	assert.Empty(t, parent.ParentID)

	child, ctx := tracer.StartSpan(ctx, "inner")
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(ctx))

	child.Finish()
	tracer.Submit(child)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("kernel", nil)
	defer tracer.Close()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderTraceID, "req_upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, TraceID("req_upstream"), seen)
	assert.Equal(t, "req_upstream", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, id.IsValid(w.Header().Get(HeaderTraceID)))
}
