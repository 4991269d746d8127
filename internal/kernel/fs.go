package kernel

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/codec"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// Every facade operation follows the same order: resolve the path
// against the caller's context, authorize against the tree as it is
// now, then hand canonical paths to the tree. Nothing is mutated before
// every check has passed.

// identity is the caller's identity with owner rights bound to live
// accounts.
func (k *Kernel) identity(ctx Context) vfs.Identity {
	id := ctx.Identity()
	id.UserExists = k.users.Exists
	return id
}

// requireAccount rejects creation on behalf of a user with no account,
// since new nodes are owned by the caller.
func (k *Kernel) requireAccount(op string, ctx Context) error {
	if !k.users.Exists(ctx.User) {
		return errs.Newf(errs.KindNotFound, op, "", "no such user '%s'", ctx.User)
	}
	return nil
}

// walk resolves path as the acting user, requiring execute on each
// directory passed through.
func (k *Kernel) walk(op string, ctx Context, abs string, followFinal bool) (*vfs.Resolution, error) {
	id := k.identity(ctx)
	res, err := k.tree.Walk(abs, followFinal, &id)
	if err != nil {
		return nil, errs.Annotate(err, op)
	}
	return res, nil
}

// parentFor resolves the directory that holds abs and requires want on
// it.
func (k *Kernel) parentFor(op string, ctx Context, abs string, want vfs.Capability) (*vfs.Resolution, error) {
	id := k.identity(ctx)
	parent, err := k.tree.Parent(abs, &id)
	if err != nil {
		return nil, errs.Annotate(err, op)
	}
	if !vfs.Check(parent.Node, id, want) {
		return nil, errs.Denied(op, parent.Path, want.String())
	}
	return parent, nil
}

func authorize(op string, res *vfs.Resolution, id vfs.Identity, want vfs.Capability) error {
	if !vfs.Check(res.Node, id, want) {
		return errs.Denied(op, res.Path, want.String())
	}
	return nil
}

func (k *Kernel) checkQuota(op string, ctx Context, path string, delta int64) error {
	limit := ctx.MaxVFSSize
	if limit <= 0 {
		limit = k.cfg.MaxVFSSize
	}
	if limit <= 0 || delta <= 0 {
		return nil
	}
	if k.tree.TotalSize()+delta > limit {
		return errs.Newf(errs.KindQuotaExceeded, op, path, "filesystem size limit of %d bytes exceeded", limit)
	}
	return nil
}

// nodeView exposes a node to the acting user. Content and the child
// listing are only included when the user may read the node.
func nodeView(n *vfs.Node, id vfs.Identity) *codec.NodeDoc {
	doc := codec.EncodeShallow(n)
	if !vfs.Check(n, id, vfs.Read) {
		return doc
	}
	switch {
	case n.IsFile():
		content := n.Content
		doc.Content = &content
	case n.IsDir():
		doc.Children = make(map[string]*codec.NodeDoc, len(n.Children))
		for name, child := range n.Children {
			doc.Children[name] = codec.EncodeShallow(child)
		}
	}
	return doc
}

// GetNode returns the node at path, following a terminal symlink, or
// nil when nothing exists there.
func (k *Kernel) GetNode(ctx Context, path string) (*codec.NodeDoc, error) {
	res, err := k.walk("get_node", ctx, ctx.Resolve(path), true)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return nodeView(res.Node, k.identity(ctx)), nil
}

// ValidateOptions tunes ValidatePath.
type ValidateOptions struct {
	// ExpectedType is "file", "directory", "symlink" or empty for any.
	ExpectedType string   `mapstructure:"expected_type"`
	Permissions  []string `mapstructure:"permissions"`
	AllowMissing bool     `mapstructure:"allow_missing"`

	// NoFollow inspects a terminal symlink itself.
	NoFollow bool `mapstructure:"no_follow"`
}

// Validated is the outcome of ValidatePath.
type Validated struct {
	Node         *codec.NodeDoc `json:"node"`
	ResolvedPath string         `json:"resolvedPath"`
}

// ValidatePath resolves path and checks it against opts without
// touching the tree.
func (k *Kernel) ValidatePath(ctx Context, path string, opts ValidateOptions) (*Validated, error) {
	const op = "validate_path"
	caps, err := vfs.ParseCapabilities(opts.Permissions)
	if err != nil {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "%v", err)
	}
	if opts.ExpectedType != "" && !vfs.NodeType(opts.ExpectedType).Valid() {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "unknown node type %q", opts.ExpectedType)
	}

	abs := ctx.Resolve(path)
	res, err := k.walk(op, ctx, abs, !opts.NoFollow)
	if err != nil {
		if opts.AllowMissing && errs.Is(err, errs.KindNotFound) && abs != vfs.RootPath {
			parent, perr := k.parentFor(op, ctx, abs, vfs.None)
			if perr != nil {
				return nil, perr
			}
			return &Validated{ResolvedPath: vfs.Join(parent.Path, vfs.Base(abs))}, nil
		}
		return nil, err
	}

	node := res.Node
	if want := vfs.NodeType(opts.ExpectedType); want != "" && node.Type != want {
		switch want {
		case vfs.TypeDirectory:
			return nil, errs.New(errs.KindNotADirectory, op, res.Path)
		case vfs.TypeFile:
			if node.IsDir() {
				return nil, errs.New(errs.KindIsADirectory, op, res.Path)
			}
		}
		return nil, errs.Newf(errs.KindInvalidArgument, op, res.Path, "not a %s", want)
	}
	if err := authorize(op, res, k.identity(ctx), caps); err != nil {
		return nil, err
	}
	return &Validated{Node: nodeView(node, k.identity(ctx)), ResolvedPath: res.Path}, nil
}

// ReadFile returns the content of a regular file.
func (k *Kernel) ReadFile(ctx Context, path string) (string, error) {
	const op = "read_file"
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return "", err
	}
	switch {
	case res.Node.IsDir():
		return "", errs.New(errs.KindIsADirectory, op, res.Path)
	case !res.Node.IsFile():
		return "", errs.Newf(errs.KindInvalidArgument, op, res.Path, "not a regular file")
	}
	if err := authorize(op, res, k.identity(ctx), vfs.Read); err != nil {
		return "", err
	}
	return res.Node.Content, nil
}

// WriteFile creates or overwrites a file, or appends to it, and returns
// its canonical path. New files belong to the acting user and its
// primary group with mode 0644.
func (k *Kernel) WriteFile(ctx Context, path, content string, appendTo bool) (string, error) {
	const op = "write_file"
	abs := ctx.Resolve(path)
	id := k.identity(ctx)

	res, err := k.tree.Walk(abs, true, &id)
	switch {
	case err == nil:
		node := res.Node
		switch {
		case node.IsDir():
			return "", errs.New(errs.KindIsADirectory, op, res.Path)
		case !node.IsFile():
			return "", errs.Newf(errs.KindInvalidArgument, op, res.Path, "not a regular file")
		}
		if err := authorize(op, res, id, vfs.Write); err != nil {
			return "", err
		}
		next := content
		if appendTo {
			next = node.Content + content
		}
		if err := k.checkQuota(op, ctx, res.Path, int64(len(next)-len(node.Content))); err != nil {
			return "", err
		}
		if err := k.tree.SetContent(res.Path, next); err != nil {
			return "", errs.Annotate(err, op)
		}
		return res.Path, nil

	case errs.Is(err, errs.KindNotFound):
		if err := k.requireAccount(op, ctx); err != nil {
			return "", err
		}
		parent, err := k.parentFor(op, ctx, abs, vfs.Write|vfs.Execute)
		if err != nil {
			return "", err
		}
		target := vfs.Join(parent.Path, vfs.Base(abs))
		if err := k.checkQuota(op, ctx, target, int64(len(content))); err != nil {
			return "", err
		}
		if err := k.tree.CreateFile(target, content, ctx.User, k.primaryGroupOf(ctx.User), vfs.DefaultFileMode, false); err != nil {
			return "", errs.Annotate(err, op)
		}
		return target, nil

	default:
		return "", errs.Annotate(err, op)
	}
}

// CreateDirectory makes a directory. With parents, missing ancestors are
// created and an existing directory is not an error.
func (k *Kernel) CreateDirectory(ctx Context, path string, parents bool) (string, error) {
	const op = "create_directory"
	abs := ctx.Resolve(path)
	if err := k.requireAccount(op, ctx); err != nil {
		return "", err
	}
	group := k.primaryGroupOf(ctx.User)

	if !parents {
		if abs == vfs.RootPath {
			return "", errs.New(errs.KindAlreadyExists, op, abs)
		}
		parent, err := k.parentFor(op, ctx, abs, vfs.Write|vfs.Execute)
		if err != nil {
			return "", err
		}
		target := vfs.Join(parent.Path, vfs.Base(abs))
		if err := k.tree.CreateDirectory(target, ctx.User, group, vfs.DefaultDirMode); err != nil {
			return "", errs.Annotate(err, op)
		}
		return target, nil
	}

	id := k.identity(ctx)
	cur := vfs.RootPath
	for _, seg := range vfs.Split(abs) {
		next := vfs.Join(cur, seg)
		res, err := k.tree.Walk(next, true, &id)
		if err == nil {
			if !res.Node.IsDir() {
				return "", errs.New(errs.KindNotADirectory, op, res.Path)
			}
			cur = res.Path
			continue
		}
		if !errs.Is(err, errs.KindNotFound) {
			return "", errs.Annotate(err, op)
		}
		parent, err := k.parentFor(op, ctx, next, vfs.Write|vfs.Execute)
		if err != nil {
			return "", err
		}
		target := vfs.Join(parent.Path, seg)
		if err := k.tree.CreateDirectory(target, ctx.User, group, vfs.DefaultDirMode); err != nil {
			return "", errs.Annotate(err, op)
		}
		cur = target
	}
	return cur, nil
}

// CreateSymlink creates linkPath pointing at target. The target is not
// required to exist.
func (k *Kernel) CreateSymlink(ctx Context, target, linkPath string) (string, error) {
	const op = "create_symlink"
	abs := ctx.Resolve(linkPath)
	if abs == vfs.RootPath {
		return "", errs.New(errs.KindAlreadyExists, op, abs)
	}
	if err := k.requireAccount(op, ctx); err != nil {
		return "", err
	}
	parent, err := k.parentFor(op, ctx, abs, vfs.Write|vfs.Execute)
	if err != nil {
		return "", err
	}
	dst := vfs.Join(parent.Path, vfs.Base(abs))
	if err := k.tree.CreateSymlink(dst, target, ctx.User, k.primaryGroupOf(ctx.User)); err != nil {
		return "", errs.Annotate(err, op)
	}
	return dst, nil
}

// Remove deletes the node at path; a terminal symlink is removed, not
// its target. Recursive removal checks the whole subtree first: every
// directory needs write and execute, every other entry write.
func (k *Kernel) Remove(ctx Context, path string, recursive bool) error {
	const op = "remove"
	abs := ctx.Resolve(path)
	if abs == vfs.RootPath {
		return errs.Invariant(op, abs, "cannot remove the root directory")
	}

	res, err := k.walk(op, ctx, abs, false)
	if err != nil {
		return err
	}
	if _, err := k.parentFor(op, ctx, abs, vfs.Write|vfs.Execute); err != nil {
		return err
	}

	node := res.Node
	if node.IsDir() && len(node.Children) > 0 {
		if !recursive {
			return errs.New(errs.KindDirectoryNotEmpty, op, res.Path)
		}
		if err := k.checkSubtreeRemovable(op, ctx, res.Path); err != nil {
			return err
		}
	}

	if err := k.tree.Remove(res.Path, recursive); err != nil {
		return errs.Annotate(err, op)
	}
	return nil
}

func (k *Kernel) checkSubtreeRemovable(op string, ctx Context, top string) error {
	id := k.identity(ctx)
	return k.tree.Visit(top, false, func(p string, n *vfs.Node) error {
		want := vfs.Write
		if n.IsDir() {
			want |= vfs.Execute
		}
		if !vfs.Check(n, id, want) {
			return errs.Denied(op, p, want.String())
		}
		return nil
	})
}

// Rename moves src to dst and returns the new canonical path. When dst
// is an existing directory the node moves into it.
func (k *Kernel) Rename(ctx Context, src, dst string) (string, error) {
	const op = "rename_node"
	srcAbs, dstAbs := ctx.Resolve(src), ctx.Resolve(dst)
	if srcAbs == vfs.RootPath {
		return "", errs.Invariant(op, srcAbs, "cannot move the root directory")
	}
	id := k.identity(ctx)

	srcRes, err := k.walk(op, ctx, srcAbs, false)
	if err != nil {
		return "", err
	}
	if _, err := k.parentFor(op, ctx, srcAbs, vfs.Write|vfs.Execute); err != nil {
		return "", err
	}

	final := dstAbs
	dstRes, err := k.tree.Walk(dstAbs, true, &id)
	switch {
	case err == nil && dstRes.Node.IsDir():
		final = vfs.Join(dstRes.Path, vfs.Base(srcRes.Path))
		if err := authorize(op, dstRes, id, vfs.Write|vfs.Execute); err != nil {
			return "", err
		}
	case err == nil || errs.Is(err, errs.KindNotFound):
		parent, err := k.parentFor(op, ctx, dstAbs, vfs.Write|vfs.Execute)
		if err != nil {
			return "", err
		}
		final = vfs.Join(parent.Path, vfs.Base(dstAbs))
	default:
		return "", errs.Annotate(err, op)
	}

	if vfs.IsStrictDescendant(final, srcRes.Path) {
		return "", errs.Invariant(op, srcRes.Path, fmt.Sprintf("cannot move into own subdirectory '%s'", final))
	}

	moved, err := k.tree.Move(srcRes.Path, dstAbs)
	if err != nil {
		return "", errs.Annotate(err, op)
	}
	return moved, nil
}

// CopyOptions tunes Copy.
type CopyOptions struct {
	Recursive bool `mapstructure:"recursive"`

	// Preserve keeps mode bits and mtimes; ownership is kept only when
	// root copies and the owner and group still exist.
	Preserve bool `mapstructure:"preserve"`

	// Force replaces an existing destination that the caller may remove.
	Force bool `mapstructure:"force"`
}

// Copy duplicates src at dst and returns the canonical path of the
// copy. When dst is an existing directory the copy goes inside it.
// The caller needs read on every copied node (plus execute on copied
// directories) and write and execute on the destination directory.
func (k *Kernel) Copy(ctx Context, src, dst string, opts CopyOptions) (string, error) {
	const op = "copy"
	if err := k.requireAccount(op, ctx); err != nil {
		return "", err
	}
	id := k.identity(ctx)
	srcAbs, dstAbs := ctx.Resolve(src), ctx.Resolve(dst)

	srcRes, err := k.walk(op, ctx, srcAbs, true)
	if err != nil {
		return "", err
	}
	if srcRes.Node.IsDir() && !opts.Recursive {
		return "", errs.Newf(errs.KindIsADirectory, op, srcRes.Path, "-r not specified; omitting directory")
	}
	if err := k.tree.Visit(srcRes.Path, true, func(p string, n *vfs.Node) error {
		want := vfs.Read
		if n.IsDir() {
			want |= vfs.Execute
		}
		if !vfs.Check(n, id, want) {
			return errs.Denied(op, p, want.String())
		}
		return nil
	}); err != nil {
		return "", err
	}

	var final string
	dstRes, err := k.tree.Walk(dstAbs, true, &id)
	switch {
	case err == nil && dstRes.Node.IsDir():
		if err := authorize(op, dstRes, id, vfs.Write|vfs.Execute); err != nil {
			return "", err
		}
		final = vfs.Join(dstRes.Path, vfs.Base(srcRes.Path))
	case err == nil || errs.Is(err, errs.KindNotFound):
		if dstAbs == vfs.RootPath {
			return "", errs.New(errs.KindAlreadyExists, op, dstAbs)
		}
		parent, err := k.parentFor(op, ctx, dstAbs, vfs.Write|vfs.Execute)
		if err != nil {
			return "", err
		}
		final = vfs.Join(parent.Path, vfs.Base(dstAbs))
	default:
		return "", errs.Annotate(err, op)
	}

	delta := srcRes.Node.SubtreeSize()
	existing, err := k.tree.Lookup(final, false)
	if err == nil {
		if !opts.Force {
			return "", errs.New(errs.KindAlreadyExists, op, final)
		}
		if existing.IsDir() && !srcRes.Node.IsDir() {
			return "", errs.New(errs.KindIsADirectory, op, final)
		}
		if err := k.checkSubtreeRemovable(op, ctx, final); err != nil {
			return "", err
		}
		delta -= existing.SubtreeSize()
	}
	if err := k.checkQuota(op, ctx, final, delta); err != nil {
		return "", err
	}

	now := k.tree.Now()
	owner, group := ctx.User, k.primaryGroupOf(ctx.User)
	keepOwner := opts.Preserve && id.IsRoot()
	copied, err := k.tree.Copy(srcRes.Path, final, opts.Force, func(n *vfs.Node) {
		if !keepOwner || !k.users.Exists(n.Owner) || !k.groups.Exists(n.Group) {
			n.Owner, n.Group = owner, group
		}
		if !opts.Preserve {
			n.MTime = now
		}
	})
	if err != nil {
		return "", errs.Annotate(err, op)
	}
	return copied, nil
}

// Chmod changes the mode of the node at path. Only its owner or root
// may do so.
func (k *Kernel) Chmod(ctx Context, path string, mode uint32) error {
	const op = "chmod"
	if mode > vfs.MaxMode {
		return errs.Newf(errs.KindInvalidArgument, op, path, "invalid mode '%o'", mode)
	}
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return err
	}
	if !vfs.CanModify(res.Node, k.identity(ctx)) {
		return errs.Newf(errs.KindPermissionDenied, op, res.Path, "only the owner or root may change the mode")
	}
	if err := k.tree.Chmod(res.Path, mode); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "chmod", fmt.Sprintf("%04o %s", mode, res.Path))
	return nil
}

// Chown changes the owner of the node at path. Only root may do so.
func (k *Kernel) Chown(ctx Context, path, owner string, recursive bool) error {
	const op = "chown"
	if !ctx.IsRoot() {
		return errs.Newf(errs.KindPermissionDenied, op, path, "only root may change the owner")
	}
	if !k.users.Exists(owner) {
		return errs.Newf(errs.KindNotFound, op, owner, "invalid user '%s'", owner)
	}
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return err
	}
	if err := k.tree.Chown(res.Path, owner, recursive); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "chown", fmt.Sprintf("%s %s", owner, res.Path))
	return nil
}

// Chgrp changes the group of the node at path. A non-root caller must
// own every affected node and belong to the new group.
func (k *Kernel) Chgrp(ctx Context, path, group string, recursive bool) error {
	const op = "chgrp"
	if !k.groups.Exists(group) {
		return errs.Newf(errs.KindNotFound, op, group, "invalid group '%s'", group)
	}
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return err
	}

	id := k.identity(ctx)
	if !id.IsRoot() {
		if !id.InGroup(group) {
			return errs.Newf(errs.KindPermissionDenied, op, res.Path, "not a member of group '%s'", group)
		}
		check := func(p string, n *vfs.Node) error {
			if !vfs.CanModify(n, id) {
				return errs.Newf(errs.KindPermissionDenied, op, p, "only the owner or root may change the group")
			}
			return nil
		}
		if recursive {
			err = k.tree.Visit(res.Path, true, check)
		} else {
			err = check(res.Path, res.Node)
		}
		if err != nil {
			return err
		}
	}

	if err := k.tree.Chgrp(res.Path, group, recursive); err != nil {
		return errs.Annotate(err, op)
	}
	k.record(ctx.User, "chgrp", fmt.Sprintf("%s %s", group, res.Path))
	return nil
}
