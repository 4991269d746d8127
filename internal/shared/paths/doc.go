// Package paths provides standardized VFS paths.
//
// # Directory Structure
//
//	/
//	├── home/          (one directory per user)
//	├── etc/
//	│   └── sudoers    (sudo policy, root:root 0440)
//	├── var/
//	│   └── log/
//	│       └── audit.log
//	└── tmp/           (world writable)
//
// # Usage
//
//	import "github.com/GriffinCanCode/AgentOS/kernel/internal/shared/paths"
//
//	home := paths.UserHome("alice") // /home/alice
//	for _, d := range paths.StandardDirectories() {
//	    // create d.Path with d.Mode
//	}
package paths
