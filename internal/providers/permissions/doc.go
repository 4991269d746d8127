// Package permissions exposes privilege escalation policy ("sudo") and
// the security audit trail ("audit") as boundary modules.
package permissions
