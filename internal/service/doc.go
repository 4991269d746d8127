// Package service dispatches boundary invocations to module providers.
//
// The registry keeps a catalog of providers, one per module, and turns
// invoke(module, function, args, kwargs) into a call on the matching
// provider with a single named parameter map.
//
// Features:
//   - Positional args bound by declared parameter order, kwargs overlaid
//   - Serialized dispatch: one invocation runs at a time
//   - Panic recovery into a failed envelope
//   - Structured logging and an optional metrics observer
//   - Category filtering and free-text discovery for the module catalog
//
// Example Usage:
//
//	registry := service.NewRegistry(service.WithLogger(logger))
//	registry.Register(filesystem.NewProvider(k))
//	res := registry.Invoke(ctx, types.InvokeRequest{
//	    Module:   "filesystem",
//	    Function: "read_file",
//	    Args:     []interface{}{"/etc/motd"},
//	    Context:  &callCtx,
//	})
package service
