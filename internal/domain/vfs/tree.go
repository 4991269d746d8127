package vfs

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// MaxSymlinkHops bounds symlink expansion during a single resolution.
const MaxSymlinkHops = 40

// Tree is the in-memory node graph. It owns every mutation of the
// filesystem but performs no authorization: callers validate
// permissions first and hand it canonical paths.
//
// Tree is not safe for concurrent use.
type Tree struct {
	root *Node
	now  func() time.Time
}

// Option configures a Tree.
type Option func(*Tree)

// WithClock overrides the time source used for mtimes.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) {
		t.now = now
	}
}

// NewTree creates a tree holding only the root directory, owned by
// root:root with mode 0755.
func NewTree(opts ...Option) *Tree {
	t := &Tree{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.root = newDirectory(RootUser, RootUser, DefaultDirMode, t.Now())
	return t
}

// Now returns the current time as stored in mtimes.
func (t *Tree) Now() time.Time {
	return t.now().UTC().Round(0)
}

// Root returns the root directory node.
func (t *Tree) Root() *Node {
	return t.root
}

// Replace swaps in a whole new tree, e.g. after a state import.
func (t *Tree) Replace(root *Node) error {
	if root == nil || !root.IsDir() {
		return errs.Invariant("replace", RootPath, "root must be a directory")
	}
	t.root = root
	return nil
}

// Clone returns an independent deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.Clone(), now: t.now}
}

// Resolution is the outcome of walking a path.
type Resolution struct {
	Node *Node

	// Path is the canonical path of Node after symlink expansion.
	Path string
}

// Lookup returns the node at a canonical path without permission checks.
func (t *Tree) Lookup(path string, followFinal bool) (*Node, error) {
	res, err := t.Walk(path, followFinal, nil)
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

// Walk resolves a canonical path segment by segment. Symlinks met on a
// non-terminal segment are always followed, relative to the directory
// that holds them; the terminal symlink only when followFinal is set.
// When id is non-nil every directory passed through must grant it
// execute, and the first one that does not is reported.
func (t *Tree) Walk(path string, followFinal bool, id *Identity) (*Resolution, error) {
	hops := 0
	return t.walk(path, followFinal, id, &hops)
}

func (t *Tree) walk(path string, followFinal bool, id *Identity, hops *int) (*Resolution, error) {
	node := t.root
	cur := RootPath
	segments := Split(path)

	for i, seg := range segments {
		if !node.IsDir() {
			return nil, errs.New(errs.KindNotADirectory, "", cur)
		}
		if id != nil && !Check(node, *id, Execute) {
			return nil, errs.Denied("", cur, Execute.String())
		}

		next := Join(cur, seg)
		child, ok := node.Children[seg]
		if !ok {
			return nil, errs.New(errs.KindNotFound, "", next)
		}

		last := i == len(segments)-1
		if child.IsSymlink() && (!last || followFinal) {
			*hops++
			if *hops > MaxSymlinkHops {
				return nil, errs.New(errs.KindTooManySymbolicLinks, "", next)
			}
			res, err := t.walk(Resolve(child.Target, cur), true, id, hops)
			if err != nil {
				return nil, err
			}
			node, cur = res.Node, res.Path
			continue
		}
		node, cur = child, next
	}

	return &Resolution{Node: node, Path: cur}, nil
}

// Parent resolves the directory that holds (or would hold) path and
// returns it with its canonical path.
func (t *Tree) Parent(path string, id *Identity) (*Resolution, error) {
	if path == RootPath {
		return nil, errs.Invariant("", RootPath, "the root directory has no parent")
	}
	parentPath := Parent(path)
	res, err := t.Walk(parentPath, true, id)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, errs.New(errs.KindParentNotFound, "", parentPath)
		}
		return nil, err
	}
	if !res.Node.IsDir() {
		return nil, errs.New(errs.KindNotADirectory, "", res.Path)
	}
	return res, nil
}

func (t *Tree) entry(path string) (*Resolution, string, error) {
	parent, err := t.Parent(path, nil)
	if err != nil {
		return nil, "", err
	}
	name := Base(path)
	if !ValidName(name) {
		return nil, "", errs.New(errs.KindInvalidName, "", path)
	}
	return parent, name, nil
}

// CreateFile stores content at path. An existing file is overwritten
// only when overwrite is set; its owner, group and mode are kept.
func (t *Tree) CreateFile(path, content, owner, group string, mode uint32, overwrite bool) error {
	parent, name, err := t.entry(path)
	if err != nil {
		return err
	}
	now := t.Now()

	if existing, ok := parent.Node.Children[name]; ok {
		switch {
		case existing.IsDir():
			return errs.New(errs.KindIsADirectory, "", path)
		case !overwrite || !existing.IsFile():
			return errs.New(errs.KindAlreadyExists, "", path)
		}
		existing.Content = content
		existing.MTime = now
		parent.Node.MTime = now
		return nil
	}

	parent.Node.Children[name] = &Node{
		Type:    TypeFile,
		Owner:   owner,
		Group:   group,
		Mode:    mode & MaxMode,
		MTime:   now,
		Content: content,
	}
	parent.Node.MTime = now
	return nil
}

// SetContent replaces the content of the file at path, following a
// terminal symlink. The file and the directory holding it get a new
// mtime.
func (t *Tree) SetContent(path, content string) error {
	res, err := t.Walk(path, true, nil)
	if err != nil {
		return err
	}
	node := res.Node
	switch {
	case node.IsDir():
		return errs.New(errs.KindIsADirectory, "", path)
	case !node.IsFile():
		return errs.New(errs.KindInvalidArgument, "", path)
	}
	now := t.Now()
	node.Content = content
	node.MTime = now
	if parent, err := t.Lookup(Parent(res.Path), false); err == nil {
		parent.MTime = now
	}
	return nil
}

// TotalSize sums content bytes across the whole tree.
func (t *Tree) TotalSize() int64 {
	var total int64
	visit(RootPath, t.root, func(_ string, n *Node) error {
		total += n.Size()
		return nil
	})
	return total
}

// CreateDirectory adds an empty directory at path.
func (t *Tree) CreateDirectory(path, owner, group string, mode uint32) error {
	parent, name, err := t.entry(path)
	if err != nil {
		return err
	}
	if _, ok := parent.Node.Children[name]; ok {
		return errs.New(errs.KindAlreadyExists, "", path)
	}
	now := t.Now()
	parent.Node.Children[name] = newDirectory(owner, group, mode, now)
	parent.Node.MTime = now
	return nil
}

// CreateSymlink adds a symbolic link at path pointing to target. The
// target is stored verbatim and resolved on use.
func (t *Tree) CreateSymlink(path, target, owner, group string) error {
	if target == "" {
		return errs.Newf(errs.KindInvalidArgument, "", path, "empty symlink target")
	}
	parent, name, err := t.entry(path)
	if err != nil {
		return err
	}
	if _, ok := parent.Node.Children[name]; ok {
		return errs.New(errs.KindAlreadyExists, "", path)
	}
	now := t.Now()
	parent.Node.Children[name] = &Node{
		Type:   TypeSymlink,
		Owner:  owner,
		Group:  group,
		Mode:   DefaultSymlinkMode,
		MTime:  now,
		Target: target,
	}
	parent.Node.MTime = now
	return nil
}

// Remove deletes the node at path; a terminal symlink is removed itself,
// not its target. A populated directory requires recursive.
func (t *Tree) Remove(path string, recursive bool) error {
	if path == RootPath {
		return errs.Invariant("", RootPath, "cannot remove the root directory")
	}
	parent, name, err := t.entry(path)
	if err != nil {
		return err
	}
	node, ok := parent.Node.Children[name]
	if !ok {
		return errs.New(errs.KindNotFound, "", path)
	}
	if node.IsDir() && len(node.Children) > 0 && !recursive {
		return errs.New(errs.KindDirectoryNotEmpty, "", path)
	}
	delete(parent.Node.Children, name)
	parent.Node.MTime = t.Now()
	return nil
}

// Move renames src to dst. When dst names an existing directory the
// node moves into it under its current name. It returns the canonical
// destination path.
func (t *Tree) Move(src, dst string) (string, error) {
	if src == RootPath {
		return "", errs.Invariant("", RootPath, "cannot move the root directory")
	}
	srcParent, srcName, err := t.entry(src)
	if err != nil {
		return "", err
	}
	node, ok := srcParent.Node.Children[srcName]
	if !ok {
		return "", errs.New(errs.KindNotFound, "", src)
	}
	srcReal := Join(srcParent.Path, srcName)

	target := dst
	if res, err := t.Walk(dst, true, nil); err == nil && res.Node.IsDir() {
		target = Join(res.Path, srcName)
	}
	dstParent, dstName, err := t.entry(target)
	if err != nil {
		return "", err
	}
	dstReal := Join(dstParent.Path, dstName)

	if dstReal == srcReal {
		return dstReal, nil
	}
	if IsStrictDescendant(dstReal, srcReal) {
		return "", errs.Invariant("", src, fmt.Sprintf("cannot move into own subdirectory '%s'", dstReal))
	}
	if _, exists := dstParent.Node.Children[dstName]; exists {
		return "", errs.New(errs.KindAlreadyExists, "", dstReal)
	}

	now := t.Now()
	delete(srcParent.Node.Children, srcName)
	dstParent.Node.Children[dstName] = node
	node.MTime = now
	srcParent.Node.MTime = now
	dstParent.Node.MTime = now
	return dstReal, nil
}

// Copy places a deep copy of the node at src at dst, following a
// terminal symlink at src. retag, when set, is applied to every copied
// node before it is attached. An existing dst is replaced only when
// overwrite is set. It returns the canonical destination path.
func (t *Tree) Copy(src, dst string, overwrite bool, retag func(*Node)) (string, error) {
	res, err := t.Walk(src, true, nil)
	if err != nil {
		return "", err
	}
	parent, name, err := t.entry(dst)
	if err != nil {
		return "", err
	}
	target := Join(parent.Path, name)
	if target == res.Path || IsStrictDescendant(target, res.Path) {
		return "", errs.Invariant("", res.Path, fmt.Sprintf("cannot copy into itself '%s'", target))
	}
	if _, ok := parent.Node.Children[name]; ok {
		if !overwrite {
			return "", errs.New(errs.KindAlreadyExists, "", target)
		}
		if IsStrictDescendant(res.Path, target) {
			return "", errs.Invariant("", target, fmt.Sprintf("cannot overwrite '%s' with its own descendant", target))
		}
	}

	cp := res.Node.Clone()
	if retag != nil {
		_ = visit(target, cp, func(_ string, n *Node) error {
			retag(n)
			return nil
		})
	}
	parent.Node.Children[name] = cp
	parent.Node.MTime = t.Now()
	return target, nil
}

// CalculateSize sums content bytes of every file under path. Symlinks
// inside the subtree are not followed.
func (t *Tree) CalculateSize(path string) (int64, error) {
	res, err := t.Walk(path, true, nil)
	if err != nil {
		return 0, err
	}
	return res.Node.SubtreeSize(), nil
}

// Visit calls fn for the node at path and every node below it, parents
// before children and siblings in lexical order. Returning an error
// stops the walk.
func (t *Tree) Visit(path string, followFinal bool, fn func(path string, n *Node) error) error {
	res, err := t.Walk(path, followFinal, nil)
	if err != nil {
		return err
	}
	return visit(res.Path, res.Node, fn)
}

func visit(path string, n *Node, fn func(string, *Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	if !n.IsDir() {
		return nil
	}
	for _, name := range n.ChildNames() {
		if err := visit(Join(path, name), n.Children[name], fn); err != nil {
			return err
		}
	}
	return nil
}

// Chmod sets the permission bits of the node at path.
func (t *Tree) Chmod(path string, mode uint32) error {
	if mode > MaxMode {
		return errs.Newf(errs.KindInvalidArgument, "", path, "invalid mode %o", mode)
	}
	node, err := t.Lookup(path, true)
	if err != nil {
		return err
	}
	node.Mode = mode
	node.MTime = t.Now()
	return nil
}

// Chown sets the owner of the node at path, and of its subtree when
// recursive.
func (t *Tree) Chown(path, owner string, recursive bool) error {
	return t.updateOwnership(path, recursive, func(n *Node) { n.Owner = owner })
}

// Chgrp sets the group of the node at path, and of its subtree when
// recursive.
func (t *Tree) Chgrp(path, group string, recursive bool) error {
	return t.updateOwnership(path, recursive, func(n *Node) { n.Group = group })
}

func (t *Tree) updateOwnership(path string, recursive bool, set func(*Node)) error {
	res, err := t.Walk(path, true, nil)
	if err != nil {
		return err
	}
	now := t.Now()
	apply := func(_ string, n *Node) error {
		set(n)
		n.MTime = now
		return nil
	}
	if !recursive {
		return apply(res.Path, res.Node)
	}
	return visit(res.Path, res.Node, apply)
}

// CountNodes returns the number of nodes in the tree, root included.
func (t *Tree) CountNodes() int {
	count := 0
	visit(RootPath, t.root, func(string, *Node) error {
		count++
		return nil
	})
	return count
}
