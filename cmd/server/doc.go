// Package main runs the kernel behind its JSON boundary.
//
// The process hosts one kernel instance: filesystem, accounts, groups,
// session, sudo and audit. Callers reach it through
// POST /kernel/invoke with {module, function, args, kwargs, context}
// envelopes. Every successful mutating call is flushed as a compressed
// snapshot to the configured store, and the snapshot is restored on
// the next boot.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - An optional YAML or TOML file given with -config
//   - CLI flags (override both)
//
// Usage:
//
//	# In-memory, nothing persisted
//	./server -port 8000
//
//	# Local snapshot file, development logs
//	./server -storage file -storage-path ./data/kernel.snap -dev
//
//	# Everything from a file
//	./server -config kernel.yaml
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown with a final snapshot
package main
