// Package session holds per-boot shell state.
//
// Components:
//   - Environment: variable map with push/pop snapshot scoping
//   - History: bounded command history
//   - Aliases: alias table and pure alias expansion
//   - IdentityStack: the login/su chain, never empty once initialized
//
// State bundles all four and converts the first three to and from the
// persisted session document. Nothing in this package decides who may
// do what: authorization always uses the identity supplied with each
// call, never the identity stack.
//
// Example Usage:
//
//	st := session.New(session.DefaultHistorySize)
//	st.Env.Load(session.BaseEnvironment("alice", "OopisOs"))
//	st.Identity.Clear("alice")
//	line, err := st.Aliases.Expand("ll /tmp")
package session
