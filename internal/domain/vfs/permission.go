package vfs

import (
	"fmt"
	"strings"
)

// RootUser is the superuser name. It bypasses every permission check.
const RootUser = "root"

// Capability is a set of requested access rights. The bit values match
// one rwx triplet of a mode.
type Capability uint32

const (
	Execute Capability = 1 << iota
	Write
	Read

	// None requests nothing and always passes.
	None Capability = 0
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{Read, "read"},
	{Write, "write"},
	{Execute, "execute"},
}

// String renders the set as a comma separated list, e.g. "write,execute".
func (c Capability) String() string {
	var parts []string
	for _, cn := range capabilityNames {
		if c&cn.cap != 0 {
			parts = append(parts, cn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseCapabilities converts names like "read" or "w" into a set.
func ParseCapabilities(names []string) (Capability, error) {
	var caps Capability
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "read", "r":
			caps |= Read
		case "write", "w":
			caps |= Write
		case "execute", "x":
			caps |= Execute
		default:
			return None, fmt.Errorf("unknown permission %q", name)
		}
	}
	return caps, nil
}

// Identity is the acting user together with its effective groups.
type Identity struct {
	User   string
	Groups []string

	// UserExists, when set, reports whether an account exists. A node
	// owned by a missing account grants no owner rights to anyone.
	UserExists func(name string) bool
}

// owns reports whether the owner triplet of node applies to id.
func (id Identity) owns(node *Node) bool {
	if node.Owner != id.User {
		return false
	}
	return id.UserExists == nil || id.UserExists(node.Owner)
}

// IsRoot reports whether the identity is the superuser.
func (id Identity) IsRoot() bool {
	return id.User == RootUser
}

// InGroup reports whether the identity belongs to group.
func (id Identity) InGroup(group string) bool {
	for _, g := range id.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Check decides whether id holds every capability in want on node.
//
// The owner triplet applies when the node's owner is the acting user
// and that account still exists, otherwise the group triplet when the
// node's group is one of the acting user's groups, otherwise the other
// triplet. A node whose owner has been deleted therefore falls through
// to group and other, even for a caller naming the deleted account.
func Check(node *Node, id Identity, want Capability) bool {
	if id.IsRoot() || want == None {
		return true
	}
	return Capability(triplet(node, id))&want == want
}

func triplet(node *Node, id Identity) uint32 {
	switch {
	case id.owns(node):
		return (node.Mode >> 6) & 7
	case id.InGroup(node.Group):
		return (node.Mode >> 3) & 7
	default:
		return node.Mode & 7
	}
}

// CanModify reports whether id may change ownership or mode of node:
// only its existing owner or root.
func CanModify(node *Node, id Identity) bool {
	return id.IsRoot() || id.owns(node)
}

// FormatMode renders a type and mode the way ls -l does, e.g. "drwxr-xr-x".
func FormatMode(t NodeType, mode uint32) string {
	var b strings.Builder
	switch t {
	case TypeDirectory:
		b.WriteByte('d')
	case TypeSymlink:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}
	const rwx = "rwx"
	for shift := 6; shift >= 0; shift -= 3 {
		bits := (mode >> uint(shift)) & 7
		for i := 0; i < 3; i++ {
			if bits&(4>>uint(i)) != 0 {
				b.WriteByte(rwx[i])
			} else {
				b.WriteByte('-')
			}
		}
	}
	return b.String()
}
