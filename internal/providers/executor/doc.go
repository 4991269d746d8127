// Package executor runs shell command lines against the kernel.
//
// A command line goes through alias expansion, then shell-style
// tokenizing, then one of the built-in commands. Commands that need the
// external layer to act (change directory, switch user, log out, run as
// root, remove a user) succeed with an effect name and its parameters
// instead of doing it themselves.
//
// Failures read like a terminal would print them:
//
//	rm: '/etc': Permission denied
package executor
