/*
Package monitoring provides Prometheus metrics for the kernel server.

# Overview

Metrics cover the HTTP boundary, every dispatched module function call,
snapshot flushes and the size of the virtual filesystem. Each Metrics
value owns a private registry.

# Usage

	metrics := monitoring.NewMetrics()

	// Count invocations
	registry := service.NewRegistry(service.WithObserver(metrics))

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time a snapshot flush
	timer := monitoring.NewTimer(metrics)
	// ... encode and store ...
	timer.Stop("success", len(data))

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
