// Package codec converts the filesystem tree and the account stores to
// and from their persisted JSON form.
//
// A node is stored as
//
//	{"type": "file|directory|symlink", "owner": "...", "group": "...",
//	 "mode": 420, "mtime": "2024-01-01T00:00:00Z",
//	 "content": "..." | "children": {...} | "target": "..."}
//
// and the tree as {"/": rootNode}. Map keys are emitted in sorted order
// so equal trees encode to identical bytes.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/domain/vfs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
)

// TimeLayout is the mtime format written to snapshots.
const TimeLayout = time.RFC3339Nano

// Mode is a permission value that decodes from a JSON number or an
// octal string ("0755", "0o755", "755").
type Mode uint32

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	var v uint64
	var err error
	if strings.HasPrefix(raw, `"`) {
		s, uerr := strconv.Unquote(raw)
		if uerr != nil {
			return fmt.Errorf("invalid mode %s: %w", raw, uerr)
		}
		v, err = ParseMode(s)
	} else {
		var f float64
		f, err = strconv.ParseFloat(raw, 64)
		if err == nil && (f < 0 || f != float64(uint64(f))) {
			err = fmt.Errorf("invalid mode %s", raw)
		}
		v = uint64(f)
	}
	if err != nil {
		return err
	}
	if v > uint64(vfs.MaxMode) {
		return fmt.Errorf("mode %o out of range", v)
	}
	*m = Mode(v)
	return nil
}

// ParseMode parses an octal permission string.
func ParseMode(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0o"), "0O")
	if s == "" {
		return 0, fmt.Errorf("empty mode")
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q", s)
	}
	if v > uint64(vfs.MaxMode) {
		return 0, fmt.Errorf("mode %o out of range", v)
	}
	return v, nil
}

// NodeDoc is the JSON form of a node. Nil payload fields are omitted,
// which also lets callers strip content they may not reveal.
type NodeDoc struct {
	Type     string              `json:"type"`
	Owner    string              `json:"owner"`
	Group    string              `json:"group"`
	Mode     Mode                `json:"mode"`
	MTime    string              `json:"mtime"`
	Content  *string             `json:"content,omitempty"`
	Children map[string]*NodeDoc `json:"children,omitempty"`
	Target   *string             `json:"target,omitempty"`
}

// MarshalJSON keeps an empty directory's children map in the output.
func (d NodeDoc) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"type":  d.Type,
		"owner": d.Owner,
		"group": d.Group,
		"mode":  uint32(d.Mode),
		"mtime": d.MTime,
	}
	if d.Content != nil {
		m["content"] = *d.Content
	}
	if d.Children != nil {
		m["children"] = d.Children
	}
	if d.Target != nil {
		m["target"] = *d.Target
	}
	return sonic.ConfigStd.Marshal(m)
}

// EncodeNode converts n and its subtree.
func EncodeNode(n *vfs.Node) *NodeDoc {
	doc := &NodeDoc{
		Type:  string(n.Type),
		Owner: n.Owner,
		Group: n.Group,
		Mode:  Mode(n.Mode),
		MTime: FormatTime(n.MTime),
	}
	switch n.Type {
	case vfs.TypeFile:
		content := n.Content
		doc.Content = &content
	case vfs.TypeDirectory:
		doc.Children = make(map[string]*NodeDoc, len(n.Children))
		for name, child := range n.Children {
			doc.Children[name] = EncodeNode(child)
		}
	case vfs.TypeSymlink:
		target := n.Target
		doc.Target = &target
	}
	return doc
}

// EncodeShallow converts n without its payload: no content and no
// children.
func EncodeShallow(n *vfs.Node) *NodeDoc {
	doc := &NodeDoc{
		Type:  string(n.Type),
		Owner: n.Owner,
		Group: n.Group,
		Mode:  Mode(n.Mode),
		MTime: FormatTime(n.MTime),
	}
	if n.IsSymlink() {
		target := n.Target
		doc.Target = &target
	}
	return doc
}

// DecodeNode converts a document back into a node. Missing mtimes take
// fallback. path is used for error reporting only.
func DecodeNode(doc *NodeDoc, path string, fallback time.Time) (*vfs.Node, error) {
	const op = "decode"
	if doc == nil {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "missing node")
	}
	t := vfs.NodeType(doc.Type)
	if !t.Valid() {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "unknown node type %q", doc.Type)
	}
	mtime, err := ParseTime(doc.MTime, fallback)
	if err != nil {
		return nil, errs.Newf(errs.KindInvalidArgument, op, path, "%v", err)
	}

	n := &vfs.Node{
		Type:  t,
		Owner: doc.Owner,
		Group: doc.Group,
		Mode:  uint32(doc.Mode),
		MTime: mtime,
	}
	switch t {
	case vfs.TypeFile:
		if doc.Content != nil {
			n.Content = *doc.Content
		}
	case vfs.TypeSymlink:
		if doc.Target == nil || *doc.Target == "" {
			return nil, errs.Newf(errs.KindInvalidArgument, op, path, "symlink without target")
		}
		n.Target = *doc.Target
	case vfs.TypeDirectory:
		n.Children = make(map[string]*vfs.Node, len(doc.Children))
		for name, childDoc := range doc.Children {
			childPath := vfs.Join(path, name)
			if !vfs.ValidName(name) {
				return nil, errs.Newf(errs.KindInvalidName, op, childPath, "invalid entry name %q", name)
			}
			child, err := DecodeNode(childDoc, childPath, fallback)
			if err != nil {
				return nil, err
			}
			n.Children[name] = child
		}
	}
	return n, nil
}

// FormatTime renders an mtime for storage.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored mtime. It accepts RFC 3339 with or without a
// zone; zoneless values are taken as UTC.
func ParseTime(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid mtime %q", s)
}
