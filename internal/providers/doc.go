// Package providers binds the kernel to the invoke boundary.
//
// Every boundary module is one provider. A provider describes its
// functions (Definition) and runs them (Execute), turning loosely typed
// params into kernel calls and kernel outcomes into result envelopes.
//
// Available Providers:
//   - filesystem: the permissioned VFS operations and state documents
//   - users, groups: account and group management
//   - session, env, history, alias: the interactive session
//   - sudo, audit: privilege policy and the audit trail
//   - executor: built-in shell commands
//
// Example Usage:
//
//	registry := service.NewRegistry(service.WithLogger(logger))
//	if err := providers.RegisterAll(registry, k); err != nil {
//		return err
//	}
//	res := registry.Invoke(ctx, types.InvokeRequest{Module: "filesystem", Function: "read_file", Args: []interface{}{"/etc/sudoers"}})
package providers
