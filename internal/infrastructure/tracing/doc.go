/*
Package tracing propagates request IDs through the HTTP boundary.

# Overview

Every request gets a trace ID, taken from the X-Trace-ID header when the
caller sends one and generated otherwise. The ID is echoed in the
response headers, stored in the request context and attached to every
invocation the request makes, so dispatcher logs and span logs can be
joined.

# Usage

	tracer := tracing.New("kernel", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// In a handler
	requestID := string(tracing.GetTraceID(c.Request.Context()))
*/
package tracing
