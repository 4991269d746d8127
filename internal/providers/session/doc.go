// Package session exposes the shell session state as four modules:
// session (identity stack and persisted session document), env,
// history and alias.
//
// The session modules carry no user context. They describe the one
// interactive session of a kernel instance and never authorize
// filesystem access.
package session
