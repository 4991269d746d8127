// Package server assembles the kernel process.
//
// Server Lifecycle:
//  1. Validate configuration
//  2. Build the logger, metrics and tracer
//  3. Boot the kernel and restore the last snapshot from the store
//  4. Register every boundary module with the dispatcher
//  5. Install middleware (recovery, tracing, metrics, CORS, rate limit)
//  6. Mount routes and serve
//  7. On shutdown: drain requests, flush a final snapshot, close the store
package server
