// Package filesystem exposes the kernel's permission checked filesystem
// operations as the "filesystem" module.
//
// The package is organized into operation groups:
//   - basic: read, write and remove
//   - directory: create, list, size and usage
//   - operations: rename and symlinks
//   - metadata: node views, path validation, stat, chmod, chown, chgrp
//   - search: glob based find
//   - state: snapshot export and import
//
// Every operation acts as the caller named in the request context, or
// in the inline user_context parameter when the request carries none.
// Domain failures are returned as failed envelopes with structured
// details.
//
// Example Usage:
//
//	p := filesystem.NewProvider(k)
//	res, _ := p.Execute(ctx, "filesystem.read_file", map[string]interface{}{"path": "notes.txt"}, callCtx)
package filesystem
