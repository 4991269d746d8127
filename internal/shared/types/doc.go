// Package types holds the data structures shared by the dispatcher, the
// providers and the HTTP boundary.
//
// Core Types:
//   - Service, Tool, Parameter: module catalog
//   - InvokeRequest: one module.function call with args and kwargs
//   - Context: the acting user of a call
//   - Result: the {success, data | error} envelope, with optional effect
package types
