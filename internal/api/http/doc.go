// Package http is the JSON boundary of the kernel.
//
// Endpoints:
//   - GET  /                 liveness
//   - GET  /health           boot ID, kernel counters, registry stats
//   - GET  /modules          registered modules, optionally ?category=
//   - POST /kernel/invoke    one {module, function, args, kwargs, context} call
//   - GET  /kernel/snapshot  the full state document
//   - GET  /metrics          Prometheus exposition
//   - GET  /metrics/summary  JSON digest of the counters
//
// Invoke always answers with a result envelope. A successful call to a
// mutating function is followed by a snapshot flush to the configured
// store before the response is written.
package http
