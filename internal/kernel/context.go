package kernel

import (
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
)

// Context is the caller-supplied identity of one call. The kernel never
// derives identity from its own session state: sudo-style elevation is
// simply a call made with a different Context.
type Context struct {
	// CurrentPath is the base for relative paths.
	CurrentPath string `json:"current_path" mapstructure:"current_path"`

	// User is the acting user.
	User string `json:"user" mapstructure:"user"`

	// UserGroups maps every user to its effective groups. Only the
	// acting user's entry is consulted.
	UserGroups map[string][]string `json:"user_groups" mapstructure:"user_groups"`

	// MaxVFSSize caps total file content for this call; 0 defers to the
	// kernel configuration.
	MaxVFSSize int64 `json:"max_vfs_size" mapstructure:"max_vfs_size"`
}

// RootContext acts as the superuser from the root directory.
func RootContext() Context {
	return Context{CurrentPath: vfs.RootPath, User: vfs.RootUser}
}

// Identity returns the acting user with its groups.
func (c Context) Identity() vfs.Identity {
	return vfs.Identity{User: c.User, Groups: c.UserGroups[c.User]}
}

// Resolve canonicalizes path against CurrentPath.
func (c Context) Resolve(path string) string {
	return vfs.Resolve(path, c.CurrentPath)
}

// IsRoot reports whether the acting user is the superuser.
func (c Context) IsRoot() bool {
	return c.User == vfs.RootUser
}
