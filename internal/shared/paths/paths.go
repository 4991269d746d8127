package paths

import "path"

// Top-level directories
const (
	Root = "/"
	Home = "/home"
	Etc  = "/etc"
	Var  = "/var"
	Tmp  = "/tmp"
)

// Well-known files and subdirectories
const (
	// VarLog holds system logs
	VarLog = "/var/log"

	// AuditLog records security events
	AuditLog = "/var/log/audit.log"

	// Sudoers is the sudo policy
	Sudoers = "/etc/sudoers"
)

// Dir describes a directory created at boot.
type Dir struct {
	Path string
	Mode uint32
}

// StandardDirectories returns the root-owned directories every fresh
// filesystem has, parents first.
func StandardDirectories() []Dir {
	return []Dir{
		{Path: Home, Mode: 0o755},
		{Path: Etc, Mode: 0o755},
		{Path: Var, Mode: 0o755},
		{Path: VarLog, Mode: 0o755},
		{Path: Tmp, Mode: 0o777},
	}
}

// UserHome returns the home directory of username.
func UserHome(username string) string {
	return path.Join(Home, username)
}
