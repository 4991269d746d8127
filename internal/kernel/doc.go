// Package kernel is the permissioned entry point to the virtual
// filesystem and the account stores.
//
// A Kernel owns one tree, one user store, one group store and one shell
// session. Every operation takes an explicit Context naming the acting
// user and its groups; the session's identity stack is never consulted
// for authorization. Operations resolve paths, authorize against the
// tree as it is, and only then mutate, so a rejected call leaves the
// state untouched.
package kernel
