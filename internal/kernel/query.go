package kernel

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/codec"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// Entry describes one node in a listing or search result.
type Entry struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	Type       vfs.NodeType `json:"type"`
	Owner      string       `json:"owner"`
	Group      string       `json:"group"`
	Mode       uint32       `json:"mode"`
	ModeString string       `json:"mode_string"`
	Size       int64        `json:"size"`
	MTime      string       `json:"mtime"`
	Target     string       `json:"target,omitempty"`
}

func entryOf(name, path string, n *vfs.Node) Entry {
	return Entry{
		Name:       name,
		Path:       path,
		Type:       n.Type,
		Owner:      n.Owner,
		Group:      n.Group,
		Mode:       n.Mode,
		ModeString: vfs.FormatMode(n.Type, n.Mode),
		Size:       n.Size(),
		MTime:      codec.FormatTime(n.MTime),
		Target:     n.Target,
	}
}

// ListDirectory returns the entries of a directory sorted by name.
// Symlinks are listed as themselves.
func (k *Kernel) ListDirectory(ctx Context, path string) ([]Entry, error) {
	const op = "list_directory"
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return nil, err
	}
	if !res.Node.IsDir() {
		return nil, errs.New(errs.KindNotADirectory, op, res.Path)
	}
	if err := authorize(op, res, k.identity(ctx), vfs.Read|vfs.Execute); err != nil {
		return nil, err
	}

	names := res.Node.ChildNames()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, entryOf(name, vfs.Join(res.Path, name), res.Node.Children[name]))
	}
	return entries, nil
}

// StatInfo is the metadata returned by Stat.
type StatInfo struct {
	Entry
	Children    int    `json:"children,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Extension   string `json:"extension,omitempty"`
	Digest      string `json:"digest,omitempty"`
}

// Stat describes the node at path without reading it. Content type and
// digest are included for files the caller may read.
func (k *Kernel) Stat(ctx Context, path string, follow bool) (*StatInfo, error) {
	const op = "stat"
	res, err := k.walk(op, ctx, ctx.Resolve(path), follow)
	if err != nil {
		return nil, err
	}
	n := res.Node
	info := &StatInfo{Entry: entryOf(vfs.Base(res.Path), res.Path, n)}
	if res.Path == vfs.RootPath {
		info.Name = vfs.RootPath
	}

	switch {
	case n.IsDir():
		info.Children = len(n.Children)
	case n.IsFile() && vfs.Check(n, k.identity(ctx), vfs.Read):
		mtype := mimetype.Detect([]byte(n.Content))
		info.ContentType = mtype.String()
		info.Extension = mtype.Extension()
		info.Digest = k.digest.HashString(n.Content)
	}
	return info, nil
}

// CalculateSize sums file content under path. Every directory in the
// subtree must be readable and searchable by the caller.
func (k *Kernel) CalculateSize(ctx Context, path string) (int64, error) {
	const op = "calculate_size"
	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return 0, err
	}
	id := k.identity(ctx)
	err = k.tree.Visit(res.Path, true, func(p string, n *vfs.Node) error {
		if n.IsDir() && !vfs.Check(n, id, vfs.Read|vfs.Execute) {
			return errs.Denied(op, p, (vfs.Read | vfs.Execute).String())
		}
		return nil
	})
	if err != nil {
		return 0, errs.Annotate(err, op)
	}
	size, err := k.tree.CalculateSize(res.Path)
	if err != nil {
		return 0, errs.Annotate(err, op)
	}
	return size, nil
}

// Usage reports filesystem consumption against the size limit.
type Usage struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Available int64 `json:"available"`
	Nodes     int   `json:"nodes"`
}

// DiskUsage reports the total content size. A zero limit means no cap
// and leaves Available at zero.
func (k *Kernel) DiskUsage(ctx Context) Usage {
	limit := ctx.MaxVFSSize
	if limit <= 0 {
		limit = k.cfg.MaxVFSSize
	}
	u := Usage{Used: k.tree.TotalSize(), Limit: limit, Nodes: k.tree.CountNodes()}
	if limit > 0 && limit > u.Used {
		u.Available = limit - u.Used
	}
	return u
}

// FindOptions filter Find results.
type FindOptions struct {
	// Pattern is a glob matched against the name, or against the path
	// relative to the search root when it contains a slash.
	Pattern string `mapstructure:"pattern"`

	// Type restricts results to one node type.
	Type string `mapstructure:"type"`

	MaxResults int `mapstructure:"max_results"`
}

// Find walks the tree under path and returns the matching entries in
// walk order. Directories the caller may not read and search are
// skipped silently.
func (k *Kernel) Find(ctx Context, path string, opts FindOptions) ([]Entry, error) {
	const op = "find"
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "invalid pattern '%s'", pattern)
	}
	if opts.Type != "" && !vfs.NodeType(opts.Type).Valid() {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "unknown node type '%s'", opts.Type)
	}

	res, err := k.walk(op, ctx, ctx.Resolve(path), true)
	if err != nil {
		return nil, err
	}
	byPath := strings.Contains(pattern, "/")
	id := k.identity(ctx)

	var found []Entry
	var search func(p string, n *vfs.Node) bool
	search = func(p string, n *vfs.Node) bool {
		if p != res.Path {
			subject := vfs.Base(p)
			if byPath {
				subject = strings.TrimPrefix(strings.TrimPrefix(p, res.Path), "/")
			}
			ok, _ := doublestar.Match(pattern, subject)
			if ok && (opts.Type == "" || n.Type == vfs.NodeType(opts.Type)) {
				found = append(found, entryOf(vfs.Base(p), p, n))
				if opts.MaxResults > 0 && len(found) >= opts.MaxResults {
					return false
				}
			}
		}
		if !n.IsDir() || !vfs.Check(n, id, vfs.Read|vfs.Execute) {
			return true
		}
		for _, name := range n.ChildNames() {
			if !search(vfs.Join(p, name), n.Children[name]) {
				return false
			}
		}
		return true
	}
	search(res.Path, res.Node)
	return found, nil
}
