// Package storage persists kernel snapshots.
//
// A snapshot is the full state document produced by the kernel. Stores
// hold exactly one snapshot and replace it on every Save. Open wraps
// the chosen backend so the bytes at rest are zstd compressed.
//
// Backends:
//   - memory: process memory (default)
//   - file: one host file, replaced atomically
//   - badger: one key in a badger database
//   - s3: one object in a bucket, behind a circuit breaker
package storage
