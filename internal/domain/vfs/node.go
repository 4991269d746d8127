package vfs

import (
	"sort"
	"time"
)

// NodeType tags the variant of a Node.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
	TypeSymlink   NodeType = "symlink"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return t == TypeFile || t == TypeDirectory || t == TypeSymlink
}

// Default modes for newly created nodes.
const (
	DefaultFileMode    uint32 = 0o644
	DefaultDirMode     uint32 = 0o755
	DefaultSymlinkMode uint32 = 0o777

	// MaxMode is the largest permission value a node may carry.
	MaxMode uint32 = 0o777
)

// Node is a file, directory or symlink in the tree.
//
// Only the field group matching Type is meaningful: Content for files,
// Children for directories and Target for symlinks.
type Node struct {
	Type  NodeType
	Owner string
	Group string
	Mode  uint32
	MTime time.Time

	Content  string
	Children map[string]*Node
	Target   string
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Type == TypeDirectory }

// IsFile reports whether the node is a regular file.
func (n *Node) IsFile() bool { return n.Type == TypeFile }

// IsSymlink reports whether the node is a symbolic link.
func (n *Node) IsSymlink() bool { return n.Type == TypeSymlink }

// Size is the intrinsic size of the node: content bytes for files, zero
// otherwise.
func (n *Node) Size() int64 {
	if n.Type == TypeFile {
		return int64(len(n.Content))
	}
	return 0
}

// SubtreeSize sums Size over the node and everything below it.
// Symlinks are not followed.
func (n *Node) SubtreeSize() int64 {
	total := n.Size()
	for _, child := range n.Children {
		total += child.SubtreeSize()
	}
	return total
}

// ChildNames returns the directory entries in lexical order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Children != nil {
		cp.Children = make(map[string]*Node, len(n.Children))
		for name, child := range n.Children {
			cp.Children[name] = child.Clone()
		}
	}
	return &cp
}

func newDirectory(owner, group string, mode uint32, now time.Time) *Node {
	return &Node{
		Type:     TypeDirectory,
		Owner:    owner,
		Group:    group,
		Mode:     mode & MaxMode,
		MTime:    now,
		Children: make(map[string]*Node),
	}
}
